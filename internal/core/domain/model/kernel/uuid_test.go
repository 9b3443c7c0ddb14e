package kernel_test

import (
	"testing"

	"tms/internal/core/domain/model/kernel"
	"tms/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validUUID = "550e8400-e29b-41d4-a716-446655440000"

func TestNewUUID(t *testing.T) {
	id1 := kernel.NewUUID()
	id2 := kernel.NewUUID()

	require.NoError(t, id1.Validate())
	assert.Regexp(t, `^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`, id1.String())
	assert.False(t, id1.IsEqual(id2))
}

func TestUUIDFromName(t *testing.T) {
	a := kernel.UUIDFromName("tms.commands/0/42")
	b := kernel.UUIDFromName("tms.commands/0/42")
	c := kernel.UUIDFromName("tms.commands/0/43")

	require.NoError(t, a.Validate())
	assert.True(t, a.IsEqual(b))
	assert.False(t, a.IsEqual(c))
	assert.Equal(t, uuid.Version(5), a.Bytes().Version())
}

func TestUUIDFromString(t *testing.T) {
	t.Run("should accept canonical, braced and urn forms", func(t *testing.T) {
		for _, in := range []string{validUUID, "{" + validUUID + "}", "urn:uuid:" + validUUID} {
			id, err := kernel.UUIDFromString(in)
			require.NoError(t, err, in)
			assert.Equal(t, validUUID, id.String())
		}
	})

	t.Run("should reject malformed keys as invalid values", func(t *testing.T) {
		for _, in := range []string{"", "not-a-uuid", "550e8400-e29b-41d4-a716"} {
			_, err := kernel.UUIDFromString(in)
			require.ErrorIs(t, err, errs.ErrValueIsInvalid, in)
			assert.Contains(t, err.Error(), "invalid UUID format")
		}
	})

	t.Run("should reject the nil key", func(t *testing.T) {
		_, err := kernel.UUIDFromString("00000000-0000-0000-0000-000000000000")
		assert.Equal(t, kernel.ErrUUIDIsNotConstructed, err)
	})
}

func TestUUIDFromBytes(t *testing.T) {
	parsed := uuid.MustParse(validUUID)

	id, err := kernel.UUIDFromBytes(parsed[:])
	require.NoError(t, err)
	assert.Equal(t, validUUID, id.String())
	assert.Equal(t, parsed, id.Bytes())

	_, err = kernel.UUIDFromBytes([]byte{0x55, 0x0e})
	assert.Contains(t, err.Error(), "invalid UUID format")

	_, err = kernel.UUIDFromBytes(make([]byte, 16))
	assert.Equal(t, kernel.ErrUUIDIsNotConstructed, err)
}

func TestUUID_Validate(t *testing.T) {
	var id kernel.UUID
	assert.Equal(t, kernel.ErrUUIDIsNotConstructed, id.Validate())
	assert.True(t, id.IsEqual(kernel.UUID{}))
}
