package services

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/javajoker/plugin-marketplace/internal/models"
)

type RatingServiceTestSuite struct {
	serviceTestSuite
}

func TestRatingServiceSuite(t *testing.T) {
	suite.Run(t, new(RatingServiceTestSuite))
}

func (suite *RatingServiceTestSuite) TestRateTwiceKeepsOneEntry() {
	author := suite.createUser("author")
	rater := suite.createUser("rater")
	plugin := suite.createPlugin(author, "Essentials", 5)

	_, err := suite.ratings.RatePlugin(suite.ctx, rater.ID, plugin.ID, &RatePluginRequest{Rating: 3})
	suite.Require().NoError(err)
	rated, err := suite.ratings.RatePlugin(suite.ctx, rater.ID, plugin.ID, &RatePluginRequest{Rating: 5})
	suite.Require().NoError(err)

	assert.Len(suite.T(), rated.Ratings, 1)
	assert.Equal(suite.T(), 5.0, rated.AverageRating)

	reloaded := suite.reload(plugin.ID)
	assert.Len(suite.T(), reloaded.Ratings, 1)
	assert.Equal(suite.T(), 5.0, reloaded.AverageRating)
	assert.Equal(suite.T(), int64(1), reloaded.RatingCount)
}

func (suite *RatingServiceTestSuite) TestAverageTracksAllRaters() {
	author := suite.createUser("author")
	plugin := suite.createPlugin(author, "Essentials", 5)

	for i, score := range []float64{1, 2, 4} {
		rater := suite.createUser("rater" + string(rune('a'+i)))
		_, err := suite.ratings.RatePlugin(suite.ctx, rater.ID, plugin.ID, &RatePluginRequest{Rating: score})
		suite.Require().NoError(err)
	}

	reloaded := suite.reload(plugin.ID)
	assert.InDelta(suite.T(), 7.0/3.0, reloaded.AverageRating, 1e-9)
	assert.Equal(suite.T(), models.AverageRating(reloaded.Ratings), reloaded.AverageRating)
	assert.Equal(suite.T(), int64(3), reloaded.RatingCount)
}

func (suite *RatingServiceTestSuite) TestConcurrentRatingsAreNotLost() {
	author := suite.createUser("author")
	plugin := suite.createPlugin(author, "Essentials", 5)

	raters := make([]*models.User, 6)
	for i := range raters {
		raters[i] = suite.createUser("rater" + string(rune('a'+i)))
	}

	var wg sync.WaitGroup
	for i, rater := range raters {
		wg.Add(1)
		go func(id uuid.UUID, score float64) {
			defer wg.Done()
			_, err := suite.ratings.RatePlugin(suite.ctx, id, plugin.ID, &RatePluginRequest{Rating: score})
			assert.NoError(suite.T(), err)
		}(rater.ID, float64(i%5+1))
	}
	wg.Wait()

	reloaded := suite.reload(plugin.ID)
	assert.Len(suite.T(), reloaded.Ratings, len(raters))
	assert.Equal(suite.T(), int64(len(raters)), reloaded.RatingCount)
	assert.InDelta(suite.T(), models.AverageRating(reloaded.Ratings), reloaded.AverageRating, 1e-9)
}

func (suite *RatingServiceTestSuite) TestCommentKeptWhenOmitted() {
	author := suite.createUser("author")
	rater := suite.createUser("rater")
	plugin := suite.createPlugin(author, "Essentials", 5)

	_, err := suite.ratings.RatePlugin(suite.ctx, rater.ID, plugin.ID, &RatePluginRequest{Rating: 4, Comment: str("Solid")})
	suite.Require().NoError(err)
	_, err = suite.ratings.RatePlugin(suite.ctx, rater.ID, plugin.ID, &RatePluginRequest{Rating: 2})
	suite.Require().NoError(err)

	rating, err := suite.ratings.GetUserRating(suite.ctx, rater.ID, plugin.ID)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), 2, rating.Rating)
	suite.Require().NotNil(rating.Comment)
	assert.Equal(suite.T(), "Solid", *rating.Comment)

	_, err = suite.ratings.RatePlugin(suite.ctx, rater.ID, plugin.ID, &RatePluginRequest{Rating: 2, Comment: str("Broke on 1.21")})
	suite.Require().NoError(err)
	rating, err = suite.ratings.GetUserRating(suite.ctx, rater.ID, plugin.ID)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), "Broke on 1.21", *rating.Comment)
}

func (suite *RatingServiceTestSuite) TestRejectsInvalidScores() {
	author := suite.createUser("author")
	plugin := suite.createPlugin(author, "Essentials", 5)

	for _, score := range []float64{0, 6, -1, 3.5} {
		_, err := suite.ratings.RatePlugin(suite.ctx, author.ID, plugin.ID, &RatePluginRequest{Rating: score})
		assert.ErrorIs(suite.T(), err, ErrInvalidRating, "score %v", score)
		assert.ErrorIs(suite.T(), err, ErrInvalidArgument)
	}
	assert.Empty(suite.T(), suite.reload(plugin.ID).Ratings)

	_, err := suite.ratings.RatePlugin(suite.ctx, author.ID, uuid.New(), &RatePluginRequest{Rating: 3})
	assert.ErrorIs(suite.T(), err, ErrPluginNotFound)
}

func (suite *RatingServiceTestSuite) TestGetUserRatingWithoutRating() {
	author := suite.createUser("author")
	plugin := suite.createPlugin(author, "Essentials", 5)

	rating, err := suite.ratings.GetUserRating(suite.ctx, author.ID, plugin.ID)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), 0, rating.Rating)
	assert.Nil(suite.T(), rating.Comment)

	_, err = suite.ratings.GetUserRating(suite.ctx, author.ID, uuid.New())
	assert.ErrorIs(suite.T(), err, ErrPluginNotFound)
}
