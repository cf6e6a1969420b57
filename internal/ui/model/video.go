package model

// Video is a catalog entry as served by the video API.
type Video struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Thumbnail   string `json:"thumbnail"`
	Duration    string `json:"duration"`
	Owner       string `json:"owner"`
	Views       int64  `json:"views"`
	UploadDate  string `json:"uploadDate"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
}

// FeaturedVideo is the single highlighted video shown above the catalog.
type FeaturedVideo struct {
	Video
	VideoURL    string `json:"videoUrl"`
	Description string `json:"description"`
}

// Session identifies the signed-in visitor.
type Session struct {
	UserID      int64  `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"name"`
	Email       string `json:"email,omitempty"`
	JoinDate    string `json:"joinDate,omitempty"`
}

// Credentials carries the login form input.
type Credentials struct {
	Username    string
	DisplayName string
	Password    string
}

// Phase reports whether the page finished its initial load.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseReady
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	default:
		return "unknown"
	}
}

// TokenStorageKey is the storage key holding the credential token.
const TokenStorageKey = "ivideo-token"

// Category is a browse shortcut rendered under the catalog.
type Category struct {
	Key   string
	Label string
}

// Categories are placeholders; no query backs them.
var Categories = []Category{
	{Key: "movies", Label: "Movies"},
	{Key: "tv", Label: "TV Series"},
	{Key: "anime", Label: "Anime"},
	{Key: "documentary", Label: "Documentary"},
	{Key: "music", Label: "Music"},
	{Key: "education", Label: "Education"},
}
