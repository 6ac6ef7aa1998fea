// Package main provides the entry point for the deepcrawl CLI.
//
// deepcrawl researches a question by crawling seed sites, scoring every
// admitted page against categories of indicator terms, and assessing how
// well the collected evidence resolves each category.
//
// Usage:
//
//	deepcrawl research architecture-gaps
//	deepcrawl research --all --markdown -o roadmap.md
//	deepcrawl history architecture-gaps
//
// See --help for all available options.
package main

func main() {
	Execute()
}
