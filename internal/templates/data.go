package templates

// Data is the value every template is executed with.
type Data struct {
	Project string // Django project package, e.g. "demo"
	Module  string // Primary app, e.g. "main"
	Title   string
	Heading string
	App     App // The app an app-level template renders for
	DB      DB
}

// App describes one Django app.
type App struct {
	Name  string
	Title string
	Route string
}

// DB carries the non-secret connection parameters.
type DB struct {
	Name    string
	User    string
	Host    string
	Port    int
	SSLMode string
}
