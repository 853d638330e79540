// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage
//   - TemplateStore: prompt templates stored as editable text files, seeded
//     from embedded defaults and reloaded when the files change
package file
