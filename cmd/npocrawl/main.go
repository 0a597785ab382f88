// Package main provides the entry point for the npocrawl CLI.
//
// npocrawl crawls a nonprofit directory site country by country and writes
// one record per organization (name, country, description, website, cause
// area, city) to output-<Country>.csv.
//
// Usage:
//
//	npocrawl crawl Thailand
//	npocrawl crawl --json --batch 2 Thailand Vietnam
//	npocrawl history Thailand
//
// See --help for all available options.
package main

func main() {
	Execute()
}
