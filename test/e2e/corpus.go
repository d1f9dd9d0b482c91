// Package e2e provides end-to-end tests over a generated web page corpus.
package e2e

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Page is one generated web page.
type Page struct {
	ID      string
	URL     string
	Heading string
	Body    string
}

// HTML renders the page the way a crawler would have stored it.
func (p Page) HTML() string {
	return fmt.Sprintf("<html>\n<title>%s</title>\n<h1>%s</h1>\n<p>%s</p>\n</html>\n", p.Heading, p.Heading, p.Body)
}

// QueryTestCase defines a query and the page that must be in the complete-match group.
type QueryTestCase struct {
	Query       string
	ExpectedID  string
	Description string
}

// Corpus holds pages and query test cases.
type Corpus struct {
	Pages     []Page
	TestCases []QueryTestCase
}

var topics = []struct {
	heading string
	phrase  string
	body    string
}{
	{"Python Guide", "python programming", "Python is a high level language. Python programming is used for web development and data science."},
	{"Kubernetes Docs", "kubernetes orchestration", "Kubernetes is an open source container platform. Kubernetes orchestration automates deployment and scaling."},
	{"React Tutorial", "react hooks", "React is a JavaScript library. React hooks and components enable building user interfaces."},
	{"Go Language", "golang concurrency", "Go is a statically typed language. Golang concurrency is achieved with goroutines and channels."},
	{"PostgreSQL Manual", "postgresql relational", "PostgreSQL is an advanced database. PostgreSQL relational tables support JSON and text search."},
	{"Machine Learning", "machine learning", "Machine learning is a subset of artificial intelligence. Machine learning algorithms learn patterns from data."},
	{"Neural Networks", "neural networks", "Neural networks are inspired by the brain. Deep neural networks power modern vision systems."},
	{"Information Retrieval", "inverted index", "Retrieval systems answer queries over documents. An inverted index maps each word to the documents containing it."},
	{"Compilers", "lexical analysis", "A compiler translates source code. Lexical analysis splits the program text into tokens."},
	{"Operating Systems", "virtual memory", "An operating system manages hardware. Virtual memory gives every process its own address space."},
	{"Computer Networks", "packet routing", "Networks connect hosts. Packet routing picks a path for every datagram."},
	{"Cryptography Basics", "public key", "Cryptography secures data. Public key encryption uses a pair of keys."},
	{"Software Engineering", "requirements gathering", "Software engineering studies how teams build programs. Requirements gathering comes first."},
	{"Human Computer Interaction", "usability study", "Interfaces are designed for people. A usability study observes real users."},
	{"Computer Graphics", "ray tracing", "Graphics renders images. Ray tracing follows light through a scene."},
	{"Distributed Systems", "consensus protocol", "Distributed systems run on many machines. A consensus protocol lets replicas agree."},
	{"Databases", "query optimizer", "Database engines store tables. The query optimizer chooses an execution plan."},
	{"Bioinformatics", "genome sequencing", "Bioinformatics applies computing to biology. Genome sequencing reads DNA."},
	{"Robotics", "motion planning", "Robots sense and act. Motion planning finds collision free paths."},
	{"Game Theory", "nash equilibrium", "Game theory models strategic choice. A nash equilibrium is stable for every player."},
}

// BuildCorpus returns n pages spread over two bucket directories, cycling
// through the topic table, and one query per topic.
func BuildCorpus(n int) *Corpus {
	c := &Corpus{Pages: make([]Page, 0, n)}
	for i := 0; i < n; i++ {
		t := topics[i%len(topics)]
		heading := t.heading
		if i >= len(topics) {
			heading = fmt.Sprintf("%s part %d", t.heading, i/len(topics)+1)
		}
		c.Pages = append(c.Pages, Page{
			ID:      fmt.Sprintf("%d/%d", i%2, i),
			URL:     fmt.Sprintf("www.example.edu/%s/%d", strings.ToLower(strings.ReplaceAll(t.heading, " ", "-")), i),
			Heading: heading,
			Body:    t.body,
		})
	}
	for i, t := range topics {
		if i >= len(c.Pages) {
			break
		}
		c.TestCases = append(c.TestCases, QueryTestCase{
			Query:       t.phrase,
			ExpectedID:  c.Pages[i].ID,
			Description: fmt.Sprintf("query %q matches page %s", t.phrase, c.Pages[i].ID),
		})
	}
	return c
}

// Write stores the pages under root and writes the links table next to them.
func (c *Corpus) Write(root, linksFile string) error {
	var links strings.Builder
	for _, p := range c.Pages {
		path := filepath.Join(root, filepath.FromSlash(p.ID))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(p.HTML()), 0600); err != nil {
			return err
		}
		fmt.Fprintf(&links, "%s\t%s\n", p.ID, p.URL)
	}
	return os.WriteFile(filepath.Join(root, linksFile), []byte(links.String()), 0600)
}

// Page returns the page with the given id.
func (c *Corpus) Page(id string) (Page, bool) {
	for _, p := range c.Pages {
		if p.ID == id {
			return p, true
		}
	}
	return Page{}, false
}

func containsPhrase(p Page, phrase string) bool {
	text := strings.ToLower(p.Heading + " " + p.Body)
	for _, w := range strings.Fields(phrase) {
		if !strings.Contains(text, w) {
			return false
		}
	}
	return true
}
