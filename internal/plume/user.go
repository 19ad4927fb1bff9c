package plume

type (
	// User is a member of the network. Immutable once created.
	User struct {
		ID             string
		Username       string
		ProfilePicture string
	}

	// Author is the slice of a user that gets embedded into a hydrated
	// feed entry.
	Author struct {
		Username       string
		ProfilePicture string
	}

	UserStore interface {
		CreateUser(usr User) error
		User(id string) (User, error)
	}

	// SocialGraph is the directed follow relation. A (follower, followee)
	// pair is either present once or absent.
	SocialGraph interface {
		Follow(followerID, followeeID string) error
		// Followers returns a snapshot of who follows userID; later
		// follows do not show up in an already-taken snapshot.
		Followers(userID string) []string
		Following(userID string) []string
	}
)

func (u User) AuthorSummary() Author {
	return Author{
		Username:       u.Username,
		ProfilePicture: u.ProfilePicture,
	}
}
