package domain

// FileView is the read-only row consumed by displays
type FileView struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Status     Status `json:"status"`
	Progress   int    `json:"progress"`
	Identifier string `json:"identifier,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Summary aggregates a set of views
type Summary struct {
	Total    int
	ByStatus map[Status]int
}

// Summarize counts views per status
func Summarize(views []FileView) Summary {
	s := Summary{
		Total:    len(views),
		ByStatus: make(map[Status]int, len(AllStatuses)),
	}
	for _, v := range views {
		s.ByStatus[v.Status]++
	}
	return s
}

// Count returns the number of files in the given status
func (s Summary) Count(status Status) int {
	return s.ByStatus[status]
}

// Pending returns how many files have not reached a terminal status
func (s Summary) Pending() int {
	return s.Count(StatusWaiting) + s.Count(StatusNegotiating)
}

// Done reports whether every file is terminal. An empty set is done.
func (s Summary) Done() bool {
	return s.Pending() == 0
}
