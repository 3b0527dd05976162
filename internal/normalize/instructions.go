package normalize

// Fallback instructions sent to the inference provider when native
// extraction cannot produce usable text.
const (
	instructionOCR = `You are a document digitization assistant. Extract all text ` +
		`from the provided document exactly as written. For any photographs, ` +
		`diagrams, or handwriting, add a detailed visual description in brackets. ` +
		`Preserve reading order. Return only the extracted content.`

	instructionTranscribe = `You are a transcription assistant. Transcribe the ` +
		`provided audio verbatim. Attribute speakers as Speaker 1, Speaker 2, and ` +
		`so on when distinguishable. Return only the transcript.`

	instructionDescribe = `You are a document digitization assistant. Extract all ` +
		`visible text from the provided image exactly as written, then add a ` +
		`detailed description of the visual content in brackets. Return only the ` +
		`extracted content and description.`

	promptExtract = "Process the attached file."
)
