package analysis

import "strings"

// Response markers the prompt instructs the model to emit. Matching is
// literal; if the model rephrases a section, extraction degrades instead of
// failing (unknown criteria, whole-text detail).
const (
	successMarker  = "Validada com sucesso"
	criteriaHeader = "CRITÉRIOS DE VALIDAÇÃO:"
	approvalHeader = "Motivos da aprovação:"
	tipsHeader     = "Dicas para melhoria:"
)

const (
	labelBrandVisible    = "Nome e logo visíveis"
	labelPriceTagVisible = "Preço do produto visível"
	labelProminence      = "Marcas concorrentes sem destaque"
	labelOrganized       = "Disposição organizada e visualmente agradável"
)

// ParseResponse converts the model's free-text answer into a structured
// result. It is total: any input, including empty or truncated text, yields a
// result with status approved or pending. Best-effort extraction over an
// untrusted response, never a hard parse failure.
func ParseResponse(raw string) AnalysisResult {
	result := AnalysisResult{
		Status:   StatusPending,
		Criteria: unknownCriteria(),
		Detail:   raw,
	}
	if strings.Contains(raw, successMarker) {
		result.Status = StatusApproved
	}

	// Criteria live between their header and the tips header, or run to the
	// end of the text when no tips follow. A missing header leaves all four
	// verdicts unknown: failing to parse is not the same as "not met".
	if idx := strings.Index(raw, criteriaHeader); idx >= 0 {
		section := raw[idx+len(criteriaHeader):]
		if end := strings.Index(section, tipsHeader); end >= 0 {
			section = section[:end]
		}
		result.Criteria = parseCriteria(section)
	}

	// Approved answers explain themselves under the approval header, pending
	// ones under the tips header. If the expected header is missing the whole
	// raw text stands in as the detail.
	header := tipsHeader
	if result.Status == StatusApproved {
		header = approvalHeader
	}
	if detail, ok := textAfter(raw, header); ok {
		result.Detail = detail
	}

	return result
}

func parseCriteria(section string) CriterionVerdict {
	verdict := func(label string) Verdict {
		if strings.Contains(section, label+": Verdadeiro") {
			return VerdictTrue
		}
		return VerdictFalse
	}
	return CriterionVerdict{
		BrandVisible:              verdict(labelBrandVisible),
		PriceTagVisible:           verdict(labelPriceTagVisible),
		ProminenceOverCompetitors: verdict(labelProminence),
		Organized:                 verdict(labelOrganized),
	}
}

func textAfter(text, header string) (string, bool) {
	idx := strings.Index(text, header)
	if idx < 0 {
		return "", false
	}
	return strings.TrimSpace(text[idx+len(header):]), true
}
