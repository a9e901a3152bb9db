package diary

import (
	"time"
)

// Kind classifies the registered document.
type Kind string

const (
	KindFile        Kind = "File"
	KindLetter      Kind = "Letter"
	KindServiceBook Kind = "Service Book"
	KindApplication Kind = "Application"
)

// Kinds returns every accepted kind in display order.
func Kinds() []Kind {
	return []Kind{KindFile, KindLetter, KindServiceBook, KindApplication}
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindFile, KindLetter, KindServiceBook, KindApplication:
		return true
	}
	return false
}

// CarriesFolders reports whether the kind tracks a folder count.
func (k Kind) CarriesFolders() bool {
	return k == KindFile || k == KindServiceBook
}

// Status is the current-position snapshot state of a diary.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusCreated   Status = "Created"
	StatusMarked    Status = "Marked"
	StatusForwarded Status = "Forwarded"
	StatusReturned  Status = "Returned"
	StatusClosed    Status = "Closed"
	StatusDisposed  Status = "Disposed"
)

// Statuses returns every status in display order.
func Statuses() []Status {
	return []Status{StatusPending, StatusCreated, StatusMarked, StatusForwarded, StatusReturned, StatusClosed, StatusDisposed}
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, candidate := range Statuses() {
		if s == candidate {
			return true
		}
	}
	return false
}

// ActionType labels a movement event.
type ActionType string

const (
	ActionCreated   ActionType = "Created"
	ActionMarked    ActionType = "Marked"
	ActionForwarded ActionType = "Forwarded"
	ActionReturned  ActionType = "Returned"
	ActionClosed    ActionType = "Closed"
	ActionDisposed  ActionType = "Disposed"
)

// ActionTypes returns every action in display order.
func ActionTypes() []ActionType {
	return []ActionType{ActionCreated, ActionMarked, ActionForwarded, ActionReturned, ActionClosed, ActionDisposed}
}

// Valid reports whether a is a known action.
func (a ActionType) Valid() bool {
	for _, candidate := range ActionTypes() {
		if a == candidate {
			return true
		}
	}
	return false
}

// Status maps an action onto the snapshot status it produces.
func (a ActionType) Status() Status {
	return Status(a)
}

// Diary is a registered incoming document.
type Diary struct {
	ID              int64      `db:"id" json:"id"`
	Year            int        `db:"year" json:"year"`
	Sequence        int        `db:"sequence" json:"sequence"`
	DiaryDate       time.Time  `db:"diary_date" json:"diary_date"`
	ReceivedFrom    string     `db:"received_from" json:"received_from"`
	ReceivedDiaryNo string     `db:"received_diary_no" json:"received_diary_no"`
	Kind            Kind       `db:"file_letter" json:"file_letter"`
	FolderCount     int        `db:"no_of_folders" json:"no_of_folders"`
	Subject         string     `db:"subject" json:"subject"`
	Remarks         string     `db:"remarks" json:"remarks"`
	MarkedTo        string     `db:"marked_to" json:"marked_to"`
	MarkedDate      *time.Time `db:"marked_date" json:"marked_date,omitempty"`
	Status          Status     `db:"status" json:"status"`
	CreatedBy       string     `db:"created_by" json:"created_by"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}

// DiaryNo returns the full zero padded diary number.
func (d Diary) DiaryNo() string {
	return FormatDiaryNo(d.Year, d.Sequence)
}

// ShortDiaryNo returns the unpadded diary number used by CSV exports.
func (d Diary) ShortDiaryNo() string {
	return ShortDiaryNo(d.Year, d.Sequence)
}

// Movement is one append-only ledger event.
type Movement struct {
	ID             int64      `db:"id" json:"id"`
	DiaryID        int64      `db:"diary_id" json:"diary_id"`
	Year           int        `db:"year" json:"year"`
	Sequence       int        `db:"sequence" json:"sequence"`
	FromOffice     string     `db:"from_office" json:"from_office"`
	ToOffice       string     `db:"to_office" json:"to_office"`
	ActionType     ActionType `db:"action_type" json:"action_type"`
	ActionDatetime time.Time  `db:"action_datetime" json:"action_datetime"`
	Remarks        string     `db:"remarks" json:"remarks"`
	CreatedBy      string     `db:"created_by" json:"created_by"`
	CreatedOn      time.Time  `db:"created_on" json:"created_on"`
}

// DiaryInput carries the descriptive fields for create and edit.
type DiaryInput struct {
	Year            *int       `json:"year,omitempty" validate:"omitempty,gte=1000,lte=9999"`
	DiaryDate       *time.Time `json:"diary_date,omitempty"`
	ReceivedFrom    string     `json:"received_from" validate:"max=255"`
	ReceivedDiaryNo string     `json:"received_diary_no" validate:"max=100"`
	Kind            Kind       `json:"file_letter" validate:"required"`
	FolderCount     *int       `json:"no_of_folders,omitempty"`
	Subject         string     `json:"subject"`
	Remarks         string     `json:"remarks"`
	MarkedTo        string     `json:"marked_to" validate:"max=255"`
	IdempotencyKey  string     `json:"-"`
}

// MovementInput carries a movement request.
type MovementInput struct {
	FromOffice     string     `json:"from_office" validate:"max=255"`
	ToOffice       string     `json:"to_office" validate:"max=255"`
	ActionType     ActionType `json:"action_type"`
	ActionDatetime *time.Time `json:"action_datetime,omitempty"`
	Remarks        string     `json:"remarks"`
}

// MovementDefaults are the prefilled values for a new movement.
type MovementDefaults struct {
	FromOffice     string     `json:"from_office"`
	ActionType     ActionType `json:"action_type"`
	ActionDatetime time.Time  `json:"action_datetime"`
}

// ListFilters narrows a diary listing.
type ListFilters struct {
	Query   string
	Year    string
	Status  string
	Page    int
	PerPage int
}

// Detail is a diary with its ordered ledger and projections.
type Detail struct {
	Diary         Diary      `json:"diary"`
	DiaryNo       string     `json:"diary_no"`
	Movements     []Movement `json:"movements"`
	HistoryHTML   string     `json:"history_html"`
	HistoryPlain  string     `json:"history_plain"`
	FolderDisplay string     `json:"folder_display"`
}

// ListResult is a page of diaries.
type ListResult struct {
	Diaries []Diary `json:"diaries"`
	Total   int     `json:"total"`
}
