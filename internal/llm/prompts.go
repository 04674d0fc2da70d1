package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dvloznov/docrisk/internal/collaborators"
)

const extractionPrompt = "You are a document text extractor for financial back-office documents.\n\n" +
	"Task:\n" +
	"- Transcribe ALL readable text in the attached document.\n" +
	"- Keep table rows on one line each, with cells separated by \" | \".\n" +
	"- Do not summarize, translate or explain.\n\n" +
	"Return ONLY the transcribed text.\n" +
	"Do NOT wrap the response in code fences.\n"

const summarySystemPrompt = "You are a credit analyst writing short risk summaries for an underwriting team.\n\n" +
	"Return STRICT JSON only (no comments, no trailing commas, no extra text) with these fields:\n" +
	"- \"summary_text\": string, two or three sentences\n" +
	"- \"key_insights\": array of short strings\n" +
	"- \"red_flags_identified\": array of short strings, empty if none\n\n" +
	"Return ONLY valid raw JSON.\n" +
	"Do NOT wrap the response in code fences.\n" +
	"Output must begin with \"{\" and end with \"}\".\n"

const maxPromptContent = 4000

// buildSummaryPrompt renders the analysis facts the model summarizes.
func buildSummaryPrompt(in collaborators.SummaryInput) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Document type: %s\n", in.DocumentType)
	fmt.Fprintf(&b, "Risk score: %.0f (%s), decision: %s\n", in.Assessment.Score, in.Assessment.Bin, in.Assessment.Decision)

	b.WriteString("Rule findings:\n")
	for _, r := range in.Assessment.Rationale {
		b.WriteString("  - " + r + "\n")
	}

	if in.Metrics != nil {
		data, err := json.MarshalIndent(in.Metrics, "", "  ")
		if err != nil {
			return "", fmt.Errorf("buildSummaryPrompt: marshal metrics: %w", err)
		}
		b.WriteString("\nMetrics (null means not available):\n")
		b.Write(data)
		b.WriteString("\n")
	}

	if text := collaborators.ContentText(in.Content); text != "" {
		runes := []rune(text)
		if len(runes) > maxPromptContent {
			text = string(runes[:maxPromptContent])
		}
		b.WriteString("\nDocument excerpt:\n")
		b.WriteString(text)
		b.WriteString("\n")
	}

	return b.String(), nil
}
