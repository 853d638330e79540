// Package file loads reports from the local filesystem.
//
// Plain text and Markdown are read as-is after charset detection. HTML is
// reduced to its readable text and DOCX to its paragraph text. The title is
// taken from the document (first H1, <title>, core properties) and falls back
// to the file name.
package file
