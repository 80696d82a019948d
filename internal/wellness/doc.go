// Package wellness derives user-facing views from stored wellness data:
// mood statistics, journal previews, backup snapshots, and HTML journal
// export. Snapshots never contain provider API keys or account credentials.
package wellness
