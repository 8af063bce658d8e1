package mcpserver

// QuerySyntax documents the filter macro accepted by query_pages and
// metatable.
const QuerySyntax = `# Page Query Syntax

A query is a comma-separated list of filters, optionally followed by a
column block. A page matches when it satisfies every filter.

## Filters

| Form | Matches pages where |
| --- | --- |
| ` + "`key=value`" + ` | some value of ` + "`key`" + ` equals ` + "`value`" + ` |
| ` + "`?key`" + ` | ` + "`key`" + ` is present in the frontmatter |
| ` + "`key~=text`" + ` | some value of ` + "`key`" + ` contains ` + "`text`" + ` |
| ` + "`key/=regex`" + ` | some value of ` + "`key`" + ` matches ` + "`regex`" + ` (an invalid regex matches nothing) |
| ` + "`->Page`" + ` | the page links to ` + "`Page`" + ` |
| ` + "`<-Page`" + ` | ` + "`Page`" + ` links to the page |

Parts that fit none of these forms are ignored. An empty query matches
every page.

## Columns

A trailing ` + "`||col||col||`" + ` block picks the table columns. ` + "`name`" + ` and
` + "`file_path`" + ` resolve to page attributes; any other column is a
frontmatter key. Without a block the table has the single column ` + "`name`" + `.

## Metadata

Frontmatter scalars become one value. Lists become one value per item.
Booleans are normalised to ` + "`true`" + ` / ` + "`false`" + `. Nested mappings and
nulls are not indexed.

## Example

` + "```" + `
status=draft, tags~=rust, ->Roadmap, ||name||status||owner||
` + "```" + `
`
