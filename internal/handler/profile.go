package handler

import (
    "fmt"
    "math/rand"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
)

// ProfileHandler serves randomized demo profiles.  The data is generated
// per request and never persisted.
type ProfileHandler struct{}

func NewProfileHandler() *ProfileHandler { return &ProfileHandler{} }

type userProfile struct {
    ID             uint64    `json:"id"`
    Username       string    `json:"username"`
    Email          string    `json:"email"`
    Phone          string    `json:"phone"`
    FullName       string    `json:"fullName"`
    Avatar         string    `json:"avatar"`
    Bio            string    `json:"bio"`
    JoinDate       time.Time `json:"joinDate"`
    FollowersCount int       `json:"followersCount"`
    FollowingCount int       `json:"followingCount"`
    Interests      []string  `json:"interests"`
    Location       string    `json:"location"`
    Website        string    `json:"website,omitempty"`
    Verified       bool      `json:"verified"`
}

var (
    profileFirstNames = []string{"John", "Jane", "Michael", "Emily", "David", "Sarah", "Robert", "Lisa"}
    profileLastNames  = []string{"Smith", "Johnson", "Williams", "Jones", "Brown", "Davis", "Miller", "Wilson"}
    profileCities     = []string{"New York", "Los Angeles", "Chicago", "Houston", "Phoenix", "Philadelphia", "San Antonio", "San Diego"}
    profileCountries  = []string{"USA", "Canada", "UK", "Australia", "Germany", "France", "Japan", "China"}
    profileInterests  = []string{
        "Photography", "Cooking", "Traveling", "Reading", "Gaming", "Sports", "Music", "Art",
        "Technology", "Fashion", "Movies", "Hiking", "Yoga", "Dancing", "Writing", "Gardening",
    }
)

// Get returns a randomized profile for the given user id.
func (h *ProfileHandler) Get(c echo.Context) error {
    userID, err := strconv.ParseUint(c.Param("userId"), 10, 64)
    if err != nil {
        return respondError(c, http.StatusBadRequest, "invalid user id")
    }
    return respond(c, http.StatusOK, "User profile retrieved successfully", randomProfile(userID))
}

func randomProfile(userID uint64) userProfile {
    first := pick(profileFirstNames)
    last := pick(profileLastNames)
    city := pick(profileCities)
    username := strings.ToLower(first + last + strconv.Itoa(rand.Intn(100)))
    location := city + ", " + pick(profileCountries)

    interest1 := pick(profileInterests)
    interest2 := pick(profileInterests)
    var bio string
    switch rand.Intn(4) {
    case 0:
        bio = fmt.Sprintf("Professional %s enthusiast with a passion for %s.", interest1, interest2)
    case 1:
        bio = fmt.Sprintf("%s lover and %s expert based in %s.", interest1, interest2, city)
    case 2:
        bio = fmt.Sprintf("Exploring the world of %s and %s. Based in %s.", interest1, interest2, city)
    default:
        bio = fmt.Sprintf("%s professional with %d+ years of experience in %s.", interest1, 2+rand.Intn(8), interest2)
    }

    gender := "men"
    if rand.Intn(2) == 0 {
        gender = "women"
    }

    p := userProfile{
        ID:             userID,
        Username:       username,
        Email:          username + "@example.com",
        Phone:          strconv.Itoa(1000000000 + rand.Intn(9000000)),
        FullName:       first + " " + last,
        Avatar:         fmt.Sprintf("https://randomuser.me/api/portraits/%s/%d.jpg", gender, rand.Intn(100)),
        Bio:            bio,
        JoinDate:       time.Now().AddDate(0, 0, -rand.Intn(365*3)),
        FollowersCount: rand.Intn(10000),
        FollowingCount: rand.Intn(1000),
        Interests:      profileInterests[:3+rand.Intn(3)],
        Location:       location,
        Verified:       rand.Intn(5) == 0,
    }
    if rand.Intn(2) == 0 {
        p.Website = "https://" + username + ".example.com"
    }
    return p
}

func pick(options []string) string { return options[rand.Intn(len(options))] }
