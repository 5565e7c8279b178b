package library

// Book is a single catalog entry. ID is assigned by the database and is never
// reused after a delete.
type Book struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	Category string `json:"category"`
}

// User is a registered login. Passwords are stored and compared as given.
type User struct {
	Username string `json:"username"`
	Password string `json:"-"` // Don't serialize password
}

// Book categories.
const (
	CategoryFiction    = "Fiction"
	CategoryNonFiction = "Non-fiction"
	CategoryAcademic   = "Academic"
	CategoryReligious  = "Religious"
	CategoryOther      = "Other"
)

// AllCategories is the GetBooks filter that matches every book.
const AllCategories = "All"

// Categories lists the fixed category set in display order.
var Categories = []string{
	CategoryFiction,
	CategoryNonFiction,
	CategoryAcademic,
	CategoryReligious,
	CategoryOther,
}

// IsCategory reports whether c is one of the fixed categories.
func IsCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}
