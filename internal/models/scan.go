package models

// ContentUnit is one discovered markdown file, ordered and fingerprinted by the scanner
type ContentUnit struct {
	OrderIndex  int    `json:"order_index"` // Position in path-sorted scan order
	FilePath    string `json:"file_path"`   // Relative to the scan root
	Title       string `json:"title"`       // First H1, or the file name without extension
	Content     string `json:"content"`
	Fingerprint string `json:"fingerprint"` // Pure function of Content
	WordCount   int    `json:"word_count"`  // CJK chars count as one word each

	// Markdown structure tallies
	HeadingCount   int `json:"heading_count"`
	CodeBlockCount int `json:"code_block_count"`
	ImageCount     int `json:"image_count"`
	LinkCount      int `json:"link_count"`
}
