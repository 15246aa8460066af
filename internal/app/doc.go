// Package app contains the core application logic. It defines the main
// App struct, its configuration, and the run lifecycle that loads an
// experiment file, binds its data, and drives the architecture search,
// decoupled from any specific entrypoint like a CLI.
package app
