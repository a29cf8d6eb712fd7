package faq

// visibleAnswers applies owner-only visibility: the asking user sees every
// answer, anyone else sees none.
func visibleAnswers(q Question, requesterID string) []Answer {
	if requesterID == "" || requesterID != q.AskingUserID {
		return []Answer{}
	}
	out := make([]Answer, len(q.Answers))
	copy(out, q.Answers)
	return out
}
