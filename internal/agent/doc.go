// Package agent turns free-text requests into commands and runs them.
//
// A [Planner] produces a [Plan]; [NormalizePlan] folds the parameter spellings models tend to
// emit into one shape; [ParseCommand] validates the command name against the closed [Command]
// set; and the [Dispatcher] runs the registered [Handler]. Handlers always answer with text, so
// a failed command never ends the interactive loop.
package agent
