package extract

import "fmt"

const markupPromptTemplate = `You will be given a text, usually a speech or an article. Mark every statement in it that asserts an objective, verifiable fact: an event or condition that exists or has existed and can be checked against external evidence.

Do not mark:
- opinions or subjective views
- promises, predictions or intentions, including anything phrased with "will"
- conditional statements

Return the full text unchanged except for the markers. Wrap each standalone factual claim in %[1]s%[2]s. Do not add, remove or reword anything else.

Example:
Input: The city's population exceeded one million in 2020. We will build more parks.
Output: %[1]sThe city's population exceeded one million in 2020%[2]s. We will build more parks.`

const structuredPrompt = `You will be given a text, usually a speech or an article. List every statement in it that asserts an objective, verifiable fact: an event or condition that exists or has existed and can be checked against external evidence.

Do not list:
- opinions or subjective views
- promises, predictions or intentions, including anything phrased with "will"
- conditional statements

Copy each claim exactly as it appears in the text, in the order it appears. Do not paraphrase.

Respond with a JSON object of the form {"claims": ["...", "..."], "topic": "..."} where topic is a short phrase naming the subject of the text.`

// MarkupPrompt returns the claim-tagging instruction for the given markers
func MarkupPrompt(open, close string) string {
	return fmt.Sprintf(markupPromptTemplate, open, close)
}

// StructuredPrompt returns the claim-listing instruction
func StructuredPrompt() string {
	return structuredPrompt
}
