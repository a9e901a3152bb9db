package diary

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/diarydesk/diarydesk/internal/shared"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateFolders applies the folder-count rule for kind. File and Service
// Book require at least one folder, every other kind is forced to zero.
func ValidateFolders(kind Kind, count *int) (int, error) {
	if !kind.CarriesFolders() {
		return 0, nil
	}
	if count == nil || *count < 1 {
		return 0, shared.NewValidationError("no_of_folders", "Folders count is required for File or Service Book.")
	}
	return *count, nil
}

// normalizeDiaryInput trims text fields and collects field errors.
func normalizeDiaryInput(in DiaryInput) (DiaryInput, int, error) {
	in.ReceivedFrom = strings.TrimSpace(in.ReceivedFrom)
	in.ReceivedDiaryNo = strings.TrimSpace(in.ReceivedDiaryNo)
	in.Subject = strings.TrimSpace(in.Subject)
	in.Remarks = strings.TrimSpace(in.Remarks)
	in.MarkedTo = strings.TrimSpace(in.MarkedTo)
	in.Kind = Kind(strings.TrimSpace(string(in.Kind)))

	verr := &shared.ValidationError{}
	collectStructErrors(verr, in)
	if in.Kind != "" && !in.Kind.Valid() {
		verr.Add("file_letter", "Select a valid choice.")
	}
	folders := 0
	if in.Kind.Valid() {
		var err error
		folders, err = ValidateFolders(in.Kind, in.FolderCount)
		if err != nil {
			verr.Errors = append(verr.Errors, shared.FieldErrors(err)...)
		}
	}
	if err := verr.OrNil(); err != nil {
		return in, 0, err
	}
	return in, folders, nil
}

// normalizeMovementInput trims and checks a movement request.
func normalizeMovementInput(in MovementInput) (MovementInput, error) {
	in.FromOffice = strings.TrimSpace(in.FromOffice)
	in.ToOffice = strings.TrimSpace(in.ToOffice)
	in.Remarks = strings.TrimSpace(in.Remarks)
	in.ActionType = ActionType(strings.TrimSpace(string(in.ActionType)))

	verr := &shared.ValidationError{}
	collectStructErrors(verr, in)
	if in.ToOffice == "" {
		verr.Add("to_office", "Destination office is required.")
	}
	if in.ActionType == "" {
		in.ActionType = ActionMarked
	} else if !in.ActionType.Valid() {
		verr.Add("action_type", "Select a valid choice.")
	}
	return in, verr.OrNil()
}

func collectStructErrors(verr *shared.ValidationError, v any) {
	err := validate.Struct(v)
	if err == nil {
		return
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		verr.Add("request", err.Error())
		return
	}
	for _, fe := range fieldErrs {
		verr.Add(jsonFieldName(fe.Field()), fieldMessage(fe))
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return "Ensure this value has at most " + fe.Param() + " characters."
	case "gt":
		return "Ensure this value is greater than " + fe.Param() + "."
	case "gte":
		return "Ensure this value is greater than or equal to " + fe.Param() + "."
	case "lte":
		return "Ensure this value is less than or equal to " + fe.Param() + "."
	default:
		return "Invalid value."
	}
}

var jsonNames = map[string]string{
	"Year":            "year",
	"ReceivedFrom":    "received_from",
	"ReceivedDiaryNo": "received_diary_no",
	"Kind":            "file_letter",
	"MarkedTo":        "marked_to",
	"FromOffice":      "from_office",
	"ToOffice":        "to_office",
}

func jsonFieldName(field string) string {
	if name, ok := jsonNames[field]; ok {
		return name
	}
	return strings.ToLower(field)
}
