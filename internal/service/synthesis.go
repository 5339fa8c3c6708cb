package service

import (
	"fmt"
	"strings"

	"github.com/brianjwalters/graphrag-service/internal/domain"
)

const (
	maxEvidenceItems = 5
	snippetMaxLen    = 220
)

// synthesize assembles a delimited plain-text response from context and
// retrieval. Deterministic template, not a model call; callers layer
// generation on top if they want prose.
func synthesize(result *domain.RAGResult) string {
	var b strings.Builder

	b.WriteString("=== Case Context ===\n")
	b.WriteString(contextSummary(result.Context))

	b.WriteString("\n=== Retrieved Evidence ===\n")
	b.WriteString(retrievalSummary(result.Retrieval))

	if len(result.Retrieval.ReasoningChain) > 0 {
		b.WriteString("\n=== Reasoning ===\n")
		for _, step := range result.Retrieval.ReasoningChain {
			b.WriteString("- ")
			b.WriteString(step)
			b.WriteString("\n")
		}
	}

	return b.String()
}

func contextSummary(caseContext *domain.CaseContext) string {
	if caseContext == nil || caseContext.Empty() {
		return "No case context available.\n"
	}

	var b strings.Builder
	if caseContext.Case != nil {
		c := caseContext.Case
		if c.Title != "" {
			b.WriteString(c.Title)
		} else {
			b.WriteString("Untitled case")
		}
		if c.CaseNumber != "" {
			fmt.Fprintf(&b, " (No. %s)", c.CaseNumber)
		}
		if c.Status != "" {
			fmt.Fprintf(&b, ", status %s", c.Status)
		}
		if c.Jurisdiction != "" {
			fmt.Fprintf(&b, ", %s", c.Jurisdiction)
		}
		b.WriteString(".\n")
	}
	if len(caseContext.Parties) > 0 {
		names := make([]string, 0, len(caseContext.Parties))
		for _, p := range caseContext.Parties {
			if p.Role != "" {
				names = append(names, fmt.Sprintf("%s (%s)", p.Name, p.Role))
			} else {
				names = append(names, p.Name)
			}
		}
		fmt.Fprintf(&b, "Parties: %s.\n", strings.Join(names, ", "))
	}
	if len(caseContext.Deadlines) > 0 {
		fmt.Fprintf(&b, "%d upcoming deadlines, next: %s (%s).\n",
			len(caseContext.Deadlines),
			caseContext.Deadlines[0].Description,
			caseContext.Deadlines[0].DueAt.Format("2006-01-02"))
	}
	if caseContext.Summary != "" {
		b.WriteString(caseContext.Summary)
		b.WriteString("\n")
	}
	return b.String()
}

func retrievalSummary(retrieval *domain.AggregateSearchResult) string {
	if retrieval == nil || retrieval.Total == 0 {
		return "No passages matched the query.\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d passages retrieved (top score %.2f, quality %.2f).\n",
		retrieval.Total, retrieval.Results[0].Score, retrieval.QualityScore)
	for i, r := range retrieval.Results {
		if i >= maxEvidenceItems {
			break
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, makeSnippet(r.Content))
	}
	return b.String()
}

// buildEvidence converts the top retrieved passages into the structured
// evidence chain, ordered by rank.
func buildEvidence(retrieval *domain.AggregateSearchResult) []domain.Evidence {
	if retrieval == nil || retrieval.Total == 0 {
		return nil
	}
	count := retrieval.Total
	if count > maxEvidenceItems {
		count = maxEvidenceItems
	}
	evidence := make([]domain.Evidence, 0, count)
	for _, r := range retrieval.Results[:count] {
		source := r.Metadata[domain.MetadataKeyDocumentID]
		if source == "" {
			source = r.ID
		}
		evidence = append(evidence, domain.Evidence{
			Fact:   makeSnippet(r.Content),
			Source: source,
			Score:  r.Score,
		})
	}
	return evidence
}

// makeSnippet collapses whitespace and truncates at a word boundary
func makeSnippet(content string) string {
	collapsed := strings.Join(strings.Fields(content), " ")
	if len(collapsed) <= snippetMaxLen {
		return collapsed
	}
	cut := collapsed[:snippetMaxLen]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}
