// Package core provides the ingest, reshape and export pipeline of the signal lab.
//
// This package holds all pipeline logic independent of any UI or transport
// layer. The web server and the dftlab command both drive it through
// [Service].
//
// # Ingest
//
// [ParseFlat] and [ParseGrid] turn file bytes into samples. Tokens are split
// on whitespace and commas, non-numeric tokens are dropped, and a file with no
// numbers fails with [ErrEmptyOrInvalidInput]. [ValidateFileName] rejects
// anything but .txt before a read is attempted.
//
//	samples, err := core.ParseFlat([]byte("1, 2,3\n4  5"), core.ParseOptions{})
//	// samples.Values == [1 2 3 4 5]
//
//	grid, _, err := core.ParseGrid([]byte("1, 2,3\n4  5"), core.ParseOptions{})
//	// grid == [[1 2 3] [4 5 0]]
//
// # Workspace
//
// [Workspace] is the shared state. [Service.Ingest] publishes inputs, the
// transform stage publishes results with [Workspace.PublishResult], and any
// number of listeners follow along with [Workspace.Subscribe].
//
// # Export
//
// [Serialize] renders a [Result] as "<re> <im>" lines with a fixed
// [Precision]. [Export] wraps that in a [Downloader] transaction and names the
// file with [FileName], e.g. "dft_N8.txt".
package core
