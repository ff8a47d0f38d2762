package engine

// DefaultGazetteer returns a small built-in gazetteer of well-known places
// and organizations.
func DefaultGazetteer() *Gazetteer {
	g := NewGazetteer()
	g.Add("LOCATION", builtinLocations)
	g.Add("ORGANIZATION", builtinOrganizations)
	return g
}

var builtinLocations = []string{
	"Africa", "America", "Asia", "Europe", "Australia", "Antarctica",
	"North America", "South America", "Middle East",
	"United States", "United States of America", "United Kingdom", "U.S.", "U.K.",
	"Canada", "Mexico", "Brazil", "Argentina", "France", "Germany", "Italy", "Spain",
	"Portugal", "Ireland", "Netherlands", "Belgium", "Switzerland", "Austria",
	"Poland", "Sweden", "Norway", "Denmark", "Finland", "Greece", "Russia",
	"Ukraine", "China", "Japan", "Korea", "South Korea", "North Korea", "India",
	"Pakistan", "Indonesia", "Egypt", "Nigeria", "Kenya", "South Africa", "Israel",
	"Iran", "Iraq", "Saudi Arabia", "New Zealand",
	"London", "Paris", "Berlin", "Madrid", "Rome", "Vienna", "Amsterdam", "Brussels",
	"Moscow", "Beijing", "Shanghai", "Tokyo", "Seoul", "Delhi", "New Delhi", "Mumbai",
	"Sydney", "Toronto", "Chicago", "Boston", "Seattle", "New York", "New York City",
	"Los Angeles", "San Francisco", "Washington", "Washington D.C.", "Hong Kong",
	"Singapore", "Cairo", "Lagos", "Nairobi", "California", "Texas", "Florida",
}

var builtinOrganizations = []string{
	"United Nations", "European Union", "NATO", "World Bank",
	"International Monetary Fund", "World Health Organization", "Red Cross",
	"Google", "Microsoft", "Apple", "Amazon", "IBM", "Intel", "Toyota", "Reuters",
	"Associated Press", "BBC", "CNN", "New York Times", "Harvard University",
	"Stanford University", "MIT", "Oxford University", "Federal Reserve", "Congress",
	"Senate", "FBI", "CIA", "NASA",
}
