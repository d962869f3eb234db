package stubserver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndValidateRoundtrip(t *testing.T) {
	issuer := newTokenIssuer("secreto", time.Minute, time.Hour)

	access, err := issuer.IssueAccess("demo@clinica.mx")
	require.NoError(t, err)
	subject, err := issuer.Validate(access, "access")
	require.NoError(t, err)
	assert.Equal(t, "demo@clinica.mx", subject)

	refresh, err := issuer.IssueRefresh("demo@clinica.mx")
	require.NoError(t, err)
	_, err = issuer.Validate(refresh, "refresh")
	assert.NoError(t, err)
}

func TestValidateRejectsWrongType(t *testing.T) {
	issuer := newTokenIssuer("secreto", time.Minute, time.Hour)

	refresh, err := issuer.IssueRefresh("demo@clinica.mx")
	require.NoError(t, err)
	_, err = issuer.Validate(refresh, "access")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidateRejectsExpired(t *testing.T) {
	issuer := newTokenIssuer("secreto", -time.Minute, time.Hour)

	access, err := issuer.IssueAccess("demo@clinica.mx")
	require.NoError(t, err)
	_, err = issuer.Validate(access, "access")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidateRejectsForeignSignature(t *testing.T) {
	issuer := newTokenIssuer("secreto", time.Minute, time.Hour)
	other := newTokenIssuer("otro", time.Minute, time.Hour)

	access, err := other.IssueAccess("demo@clinica.mx")
	require.NoError(t, err)
	_, err = issuer.Validate(access, "access")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
