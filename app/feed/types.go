package feed

// Source is one configured feed endpoint. Label is the stable identifier
// used in logs and metric labels; configuration owns both fields and they
// never change for the process lifetime.
type Source struct {
	Label string
	URL   string
}
