package anthropic

// BuildCachedSystemBlocks wraps a system prompt in a single block with an
// ephemeral cache breakpoint. The prompt is reused by every page extraction
// in a run, so the default 5 minute TTL covers a run.
func BuildCachedSystemBlocks(text string) []SystemBlock {
	return []SystemBlock{{
		Text:         text,
		CacheControl: &CacheControl{TTL: "5m"},
	}}
}
