package models

// Classification labels recognized from the classifier model. Matching is
// case-insensitive; anything unrecognized is treated as context-specific so
// an unexpected label falls toward retrieval instead of skipping it.
const (
	LabelGeneralKnowledge = "general knowledge"
	LabelContextSpecific  = "context-specific"
)

const (
	// ClassifierContextLimit bounds the document sample sent with a
	// classification request.
	ClassifierContextLimit = 1000

	// NoSourcesNote is attached to answers produced without context because
	// nothing cleared the relevance threshold.
	NoSourcesNote = "no relevant sources found above the relevance threshold"
)

var (
	AnswerSystemPrompt = "You are an assistant answering questions based on context."

	AnswerPromptTemplate = `You are an intelligent assistant answering questions based on the provided context. If the question is general knowledge, answer it without referring to the context. If the question is specific to the provided context, answer using it. When the question contains multiple parts, break it down into sub-questions and provide answers for each part separately. Ensure your responses are clear and concise. Use the context to back your answers, and include source references when available.

Context: %s

Question: %s`

	ClassifySystemPrompt = "You are an assistant for query classification."

	ClassifyPromptTemplate = `You are an intelligent assistant. Based on the provided question and document context, classify the question as either:
- 'General Knowledge' (if it can be answered without specific document context).
- 'Context-Specific' (if it requires information from the provided document context).

Document Context: %s

Question: %s

Classification:`
)
