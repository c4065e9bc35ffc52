package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgjwt "github.com/jhoicas/Trazabilidad-api/pkg/jwt"
)

const (
	testSecret = "test-secret-key-for-unit-tests"
	testIssuer = "trazabilidad-test"
)

func TestGenerateAndParse_ConRol(t *testing.T) {
	tok, err := pkgjwt.Generate(testSecret, "ana", pkgjwt.RoleOperator, testIssuer, 60)
	require.NoError(t, err)

	subject, role, err := pkgjwt.Parse(testSecret, testIssuer, tok)
	require.NoError(t, err)
	assert.Equal(t, "ana", subject)
	assert.Equal(t, pkgjwt.RoleOperator, role)
}

func TestParse_TokenExpirado(t *testing.T) {
	tok, err := pkgjwt.Generate(testSecret, "ana", pkgjwt.RoleOperator, testIssuer, -1)
	require.NoError(t, err)

	_, _, err = pkgjwt.Parse(testSecret, testIssuer, tok)
	assert.Error(t, err)
}

func TestParse_SecretIncorrecto(t *testing.T) {
	tok, err := pkgjwt.Generate(testSecret, "ana", pkgjwt.RoleAuditor, testIssuer, 60)
	require.NoError(t, err)

	_, _, err = pkgjwt.Parse("otro-secret", testIssuer, tok)
	assert.Error(t, err)
}

func TestParse_EmisorDistinto(t *testing.T) {
	tok, err := pkgjwt.Generate(testSecret, "ana", pkgjwt.RoleAuditor, "otro-emisor", 60)
	require.NoError(t, err)

	_, _, err = pkgjwt.Parse(testSecret, testIssuer, tok)
	assert.Error(t, err)

	_, _, err = pkgjwt.Parse(testSecret, "", tok)
	assert.NoError(t, err, "sin emisor configurado no se valida el claim iss")
}

func TestGenerate_SinSubject(t *testing.T) {
	_, err := pkgjwt.Generate(testSecret, "", pkgjwt.RoleOperator, testIssuer, 60)
	assert.Error(t, err)
}
