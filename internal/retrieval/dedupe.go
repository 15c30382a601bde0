package retrieval

// Dedupe collapses documents sharing a source identifier, keeping the first
// occurrence of each source and preserving the ranked order of the input.
// Documents without a source identifier are kept as-is.
func Dedupe(docs []Document) []Document {
	if len(docs) <= 1 {
		return docs
	}

	seen := make(map[string]struct{}, len(docs))
	out := make([]Document, 0, len(docs))
	for _, doc := range docs {
		if doc.Source != "" {
			if _, ok := seen[doc.Source]; ok {
				continue
			}
			seen[doc.Source] = struct{}{}
		}
		out = append(out, doc)
	}
	return out
}
