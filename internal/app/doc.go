// Package app contains the core application logic. It wires the model
// loader, the estimator and the report renderer together, decoupled from
// any specific entrypoint like a CLI.
package app
