package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/javajoker/plugin-marketplace/internal/utils"
)

type AuthServiceTestSuite struct {
	serviceTestSuite
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}

func (suite *AuthServiceTestSuite) SetupTest() {
	suite.serviceTestSuite.SetupTest()
	utils.SetJWTSecret(suite.cfg.JWT.SecretKey)
}

func (suite *AuthServiceTestSuite) register(username, email string) *AuthResponse {
	resp, err := suite.auth.Register(suite.ctx, &RegisterRequest{
		Username: username,
		Email:    email,
		Password: "Creeper42",
	})
	suite.Require().NoError(err)
	return resp
}

func (suite *AuthServiceTestSuite) TestRegisterIssuesToken() {
	resp := suite.register("steve", "Steve@Example.com")

	assert.Equal(suite.T(), "steve", resp.User.Username)
	assert.Equal(suite.T(), "steve@example.com", resp.User.Email)
	assert.Equal(suite.T(), "Bearer", resp.TokenType)
	assert.Equal(suite.T(), 3600, resp.ExpiresIn)

	claims, err := utils.ValidateJWT(resp.AccessToken)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), resp.User.ID.String(), claims.UserID)
}

func (suite *AuthServiceTestSuite) TestRegisterRejectsDuplicates() {
	suite.register("steve", "steve@example.com")

	_, err := suite.auth.Register(suite.ctx, &RegisterRequest{Username: "steve", Email: "other@example.com", Password: "Creeper42"})
	assert.ErrorIs(suite.T(), err, ErrUserExists)

	_, err = suite.auth.Register(suite.ctx, &RegisterRequest{Username: "alex", Email: "STEVE@example.com", Password: "Creeper42"})
	assert.ErrorIs(suite.T(), err, ErrUserExists)
}

func (suite *AuthServiceTestSuite) TestRegisterValidates() {
	_, err := suite.auth.Register(suite.ctx, &RegisterRequest{Username: "x", Email: "not-an-email", Password: "short"})
	assert.ErrorIs(suite.T(), err, ErrInvalidArgument)
	assert.Len(suite.T(), utils.GetValidationErrors(err), 3)
}

func (suite *AuthServiceTestSuite) TestLogin() {
	registered := suite.register("steve", "steve@example.com")

	resp, err := suite.auth.Login(suite.ctx, &LoginRequest{Email: " STEVE@example.com", Password: "Creeper42"})
	suite.Require().NoError(err)
	assert.Equal(suite.T(), registered.User.ID, resp.User.ID)
	assert.NotNil(suite.T(), resp.User.LastLoginAt)

	_, err = suite.auth.Login(suite.ctx, &LoginRequest{Email: "steve@example.com", Password: "wrong"})
	assert.ErrorIs(suite.T(), err, ErrInvalidCredentials)

	_, err = suite.auth.Login(suite.ctx, &LoginRequest{Email: "nobody@example.com", Password: "Creeper42"})
	assert.ErrorIs(suite.T(), err, ErrInvalidCredentials)
}

func (suite *AuthServiceTestSuite) TestGetCurrentUser() {
	registered := suite.register("steve", "steve@example.com")

	user, err := suite.auth.GetCurrentUser(suite.ctx, registered.User.ID)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), "steve", user.Username)

	_, err = suite.auth.GetCurrentUser(suite.ctx, uuid.New())
	assert.ErrorIs(suite.T(), err, ErrUserNotFound)
}

func (suite *AuthServiceTestSuite) TestUpdateProfile() {
	steve := suite.register("steve", "steve@example.com").User
	suite.register("alex", "alex@example.com")

	_, err := suite.users.UpdateProfile(suite.ctx, steve.ID, &UpdateUserProfileRequest{Username: str("alex")})
	assert.ErrorIs(suite.T(), err, ErrUserExists)

	_, err = suite.users.UpdateProfile(suite.ctx, steve.ID, &UpdateUserProfileRequest{Email: str("ALEX@example.com")})
	assert.ErrorIs(suite.T(), err, ErrUserExists)

	updated, err := suite.users.UpdateProfile(suite.ctx, steve.ID, &UpdateUserProfileRequest{
		Username: str("steve_2"),
		Email:    str("steve2@example.com"),
	})
	suite.Require().NoError(err)
	assert.Equal(suite.T(), "steve_2", updated.Username)
	assert.Equal(suite.T(), "steve2@example.com", updated.Email)

	// Unchanged values are not uniqueness conflicts.
	_, err = suite.users.UpdateProfile(suite.ctx, steve.ID, &UpdateUserProfileRequest{Username: str("steve_2")})
	assert.NoError(suite.T(), err)
}

func (suite *AuthServiceTestSuite) TestUpdatePasswordRequiresCurrent() {
	steve := suite.register("steve", "steve@example.com").User

	_, err := suite.users.UpdateProfile(suite.ctx, steve.ID, &UpdateUserProfileRequest{NewPassword: str("Diamond99")})
	assert.ErrorIs(suite.T(), err, ErrCurrentPasswordRequired)

	_, err = suite.users.UpdateProfile(suite.ctx, steve.ID, &UpdateUserProfileRequest{
		CurrentPassword: str("Wrong123"),
		NewPassword:     str("Diamond99"),
	})
	assert.ErrorIs(suite.T(), err, ErrCurrentPasswordIncorrect)

	_, err = suite.users.UpdateProfile(suite.ctx, steve.ID, &UpdateUserProfileRequest{
		CurrentPassword: str("Creeper42"),
		NewPassword:     str("Diamond99"),
	})
	suite.Require().NoError(err)

	_, err = suite.auth.Login(suite.ctx, &LoginRequest{Email: "steve@example.com", Password: "Diamond99"})
	assert.NoError(suite.T(), err)
	_, err = suite.auth.Login(suite.ctx, &LoginRequest{Email: "steve@example.com", Password: "Creeper42"})
	assert.ErrorIs(suite.T(), err, ErrInvalidCredentials)

	_, err = suite.users.UpdateProfile(suite.ctx, uuid.New(), &UpdateUserProfileRequest{})
	assert.ErrorIs(suite.T(), err, ErrUserNotFound)
}
