// Package notify writes formatted messages for CLI users.
//
// Messages carry a type-specific symbol and color: success (✔), error (✗),
// warning (⚠), info (ℹ) and activity (►). Titles start a stage with an emoji,
// and [StageSeparatingWriter] puts a blank line between stages.
// [ProgressGroup] runs tasks in parallel and shows their progress.
package notify
