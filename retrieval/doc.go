// Package retrieval turns a job posting and an application question document
// into the analysis and strategy text the draft stage writes from.
//
// Sources are loaded by Loader (HTML pages, PDF, DOCX, plain text, or Google
// Docs), cut into overlapping chunks by Splitter, embedded into an in-memory
// Index, and searched with maximal marginal relevance. Retriever runs the two
// model passes and composes the result:
//
//	--- [Job Analysis] ---
//	<analysis>
//
//	--- [Resume Strategy] ---
//	<strategy>
//
// Results can be cached in Redis, keyed by a hash of both source texts.
package retrieval
