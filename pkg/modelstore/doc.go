// Package modelstore loads dsm models from disk and keeps them current.
//
// A store reads every .yaml, .yml and .json file of a directory (or a
// single file) and names each model after its file stem, so
// models/monitor.yaml is served as "monitor". With a validator attached,
// each model is checked against the engine's resolver, filter and
// postformat names; strict stores reject a load containing an invalid
// model, others keep the model and report it as invalid in List.
//
// Watch reloads the store on file changes using fsnotify, debouncing
// bursts of editor events into one load.
package modelstore
