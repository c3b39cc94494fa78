// Package repl implements the interactive shell.
//
// A Session owns an environment, evaluates statements typed at the
// "codd> " prompt and handles backslash meta-commands that load and save
// relations. Files are loaded through Load, which the CLI shares:
//
//	.csv (or "-")        one relation named after the file stem
//	.codd / workspace    every relation of a saved workspace
//	.cue / directory     relations declared in a CUE catalog
//	.db / .sqlite        relations saved by \save, or plain tables
//
// Each session gets a UUIDv7 ID that tags its log records.
package repl
