package reports

import "time"

const dateLayout = "02-01-2006"

// PDFHeader is the fixed header row of the printed register.
var PDFHeader = []string{"Diary No", "Date", "Rcvd No", "Rcvd From", "File/Letter", "Folders", "Subject", "Movement"}

// CSVHeader is the fixed header row of the CSV export.
var CSVHeader = []string{"Diary No", "Date", "Rcvd No", "Rcvd From", "File/Letter", "Folders", "Subject", "Remarks", "Status", "History"}

// YearRow is one line of the register page of a year.
type YearRow struct {
	ID              int64     `json:"id"`
	DiaryNo         string    `json:"diary_no"`
	Sequence        int       `json:"sequence"`
	DiaryDate       time.Time `json:"diary_date"`
	ReceivedDiaryNo string    `json:"received_diary_no"`
	ReceivedFrom    string    `json:"received_from"`
	Kind            string    `json:"file_letter"`
	Folders         string    `json:"folders"`
	Subject         string    `json:"subject"`
	MarkedTo        string    `json:"marked_to"`
	Status          string    `json:"status"`
	HistoryHTML     string    `json:"history_html"`
}

// YearReport is the register of one year.
type YearReport struct {
	Year int       `json:"year"`
	Rows []YearRow `json:"rows"`
}

// StatusCount is the number of diaries in a status.
type StatusCount struct {
	Status string `db:"status" json:"status"`
	Count  int    `db:"count" json:"count"`
}

// MonthCount is the number of diaries dated in a month (1-12).
type MonthCount struct {
	Month int `db:"month" json:"month"`
	Count int `db:"count" json:"count"`
}

// YearSummary is the number of diaries registered in a year.
type YearSummary struct {
	Year  int `db:"year" json:"year"`
	Count int `db:"count" json:"count"`
}

// Dashboard aggregates one year of registry activity.
type Dashboard struct {
	Year     int           `json:"year"`
	Total    int           `json:"total"`
	ByStatus []StatusCount `json:"by_status"`
	ByMonth  []MonthCount  `json:"by_month"`
	Years    []int         `json:"years"`
}

// RegisterDocument feeds the printable register template.
type RegisterDocument struct {
	Year        int
	Title       string
	Watermark   string
	GeneratedAt time.Time
	Header      []string
	Rows        [][]string
}
