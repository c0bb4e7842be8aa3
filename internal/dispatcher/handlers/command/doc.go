// Package command provides the handlers of the external command actions:
//
//   - filter_through_command replaces each selection with the output of a
//     command line fed the selection's text
//   - insert_command_output inserts a command's output at each selection
//   - cancel_external_command cancels the live command of the document
//
// Invoking a filter or insert action without a command line while one of
// the same kind is running cancels it instead; the menu label changes to
// "Cancel External Command" for as long as that is the case.
package command
