package diary

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diarydesk/diarydesk/internal/shared"
)

func intPtr(v int) *int { return &v }

func TestValidateFolders(t *testing.T) {
	t.Run("file without count fails", func(t *testing.T) {
		_, err := ValidateFolders(KindFile, nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrValidation))
		fields := shared.FieldErrors(err)
		require.Len(t, fields, 1)
		assert.Equal(t, "no_of_folders", fields[0].Field)
	})

	t.Run("file with zero fails", func(t *testing.T) {
		_, err := ValidateFolders(KindFile, intPtr(0))
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("file with one succeeds", func(t *testing.T) {
		n, err := ValidateFolders(KindFile, intPtr(1))
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("service book requires folders", func(t *testing.T) {
		_, err := ValidateFolders(KindServiceBook, intPtr(-2))
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("letter and application forced to zero", func(t *testing.T) {
		for _, kind := range []Kind{KindLetter, KindApplication} {
			n, err := ValidateFolders(kind, intPtr(7))
			require.NoError(t, err)
			assert.Zero(t, n)

			n, err = ValidateFolders(kind, nil)
			require.NoError(t, err)
			assert.Zero(t, n)
		}
	})
}

func TestNormalizeDiaryInput(t *testing.T) {
	in := DiaryInput{
		ReceivedFrom: "  Finance  ",
		Kind:         " File ",
		FolderCount:  intPtr(2),
		Subject:      " Budget ",
		MarkedTo:     " DG ",
	}
	out, folders, err := normalizeDiaryInput(in)
	require.NoError(t, err)
	assert.Equal(t, "Finance", out.ReceivedFrom)
	assert.Equal(t, KindFile, out.Kind)
	assert.Equal(t, "Budget", out.Subject)
	assert.Equal(t, "DG", out.MarkedTo)
	assert.Equal(t, 2, folders)
}

func TestNormalizeDiaryInputCollectsFieldErrors(t *testing.T) {
	_, _, err := normalizeDiaryInput(DiaryInput{Kind: "Parcel"})
	require.Error(t, err)
	fields := shared.FieldErrors(err)
	require.Len(t, fields, 1)
	assert.Equal(t, "file_letter", fields[0].Field)

	_, _, err = normalizeDiaryInput(DiaryInput{})
	require.Error(t, err)
	fields = shared.FieldErrors(err)
	require.NotEmpty(t, fields)
	assert.Equal(t, "file_letter", fields[0].Field)
}

func TestNormalizeMovementInput(t *testing.T) {
	_, err := normalizeMovementInput(MovementInput{ToOffice: "   "})
	require.Error(t, err)
	fields := shared.FieldErrors(err)
	require.Len(t, fields, 1)
	assert.Equal(t, "to_office", fields[0].Field)

	_, err = normalizeMovementInput(MovementInput{ToOffice: "DG", ActionType: "Teleported"})
	require.Error(t, err)
	assert.Equal(t, "action_type", shared.FieldErrors(err)[0].Field)

	out, err := normalizeMovementInput(MovementInput{ToOffice: " DG "})
	require.NoError(t, err)
	assert.Equal(t, "DG", out.ToOffice)
	assert.Equal(t, ActionMarked, out.ActionType)
}
