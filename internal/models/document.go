package models

// Document is an uploaded file awaiting ingestion. It only lives for the
// duration of the ingest call.
type Document struct {
	Name string
	Data []byte
}

// Vector is the record shape persisted by a vector index.
type Vector struct {
	ID       string
	Values   []float32
	Metadata Metadata
}

// Metadata travels with every vector and comes back on query matches.
type Metadata struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

// Match is a single retrieval result, scored by cosine similarity.
type Match struct {
	Score    float32
	Metadata Metadata
}

// ChatTurn is one completed question/answer exchange.
type ChatTurn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
