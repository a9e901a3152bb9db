package shared

// Diary registry permissions. Only privileged operations are gated.
const (
	PermDiaryEdit      = "diary.edit"
	PermDiaryDelete    = "diary.delete"
	PermDiaryExportPDF = "diary.export_pdf"
)

// DiaryScopes lists all permissions related to the diary registry.
func DiaryScopes() []string {
	return []string{
		PermDiaryEdit,
		PermDiaryDelete,
		PermDiaryExportPDF,
	}
}
