// Package ideation generates the batch of content ideas that seeds every
// downstream stage.
//
// One generator call produces a whole batch for the selected mode. Ideas
// are validated, deduplicated against the batch, the existing scripts and
// the title registry, given voices and written atomically to the mode's
// ideas file. When a TitleRegistry is configured the accepted ideas are
// appended to it so future batches avoid them.
package ideation
