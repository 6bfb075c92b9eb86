package domain

// Claim is a single claim value. Multi-valued claim types appear as several
// Claim entries sharing the same Type.
type Claim struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Principal is an authenticated end-user as presented by the caller.
type Principal struct {
	SubjectID string  `json:"subject_id"`
	Claims    []Claim `json:"claims,omitempty"`
}

// Values returns all values of claim type t in the order they were presented.
func (p Principal) Values(t string) []string {
	if t == ClaimSubject && p.SubjectID != "" {
		return []string{p.SubjectID}
	}
	var out []string
	for _, c := range p.Claims {
		if c.Type == t {
			out = append(out, c.Value)
		}
	}
	return out
}

// ClaimMap folds the principal's claims into type -> values, the shape used
// by access condition expressions.
func (p Principal) ClaimMap() map[string][]string {
	out := make(map[string][]string, len(p.Claims)+1)
	for _, c := range p.Claims {
		out[c.Type] = append(out[c.Type], c.Value)
	}
	if p.SubjectID != "" {
		out[ClaimSubject] = []string{p.SubjectID}
	}
	return out
}
