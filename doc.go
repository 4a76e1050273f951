// Package opengtap reads, represents and writes Header Array (HAR) files,
// the binary container produced by GEMPACK-era economic model tooling, and
// converts them between the native binary encoding and the portable
// JSON-in-ZIP form (HARX).
//
// A HAR file is a flat concatenation of named header arrays. Each array
// carries a four-character header, a description, a type code, a dimension
// vector, one or more defining index sets and a dense or sparse payload of
// strings, single-precision reals or integers.
//
// # Reading
//
// The binary reader exposes a pull-based sequence of arrays:
//
//	hr := opengtap.NewHarReader(f)
//	for {
//	    arr, err := hr.Next()
//	    if errors.Is(err, io.EOF) {
//	        break
//	    }
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(arr.Header(), arr.Description())
//	}
//
// ReadFile dispatches on the file extension, transparently decompressing
// gzip, bzip2, xz and zstandard binary (.har, .sl4) inputs:
//
//	file, err := opengtap.ReadFile("basedata.har.gz")
//
// # Converting
//
// Convert re-encodes between formats based on the output extension:
//
//	err := opengtap.Convert("solution.sl4", "solution.harx")
//
// # Solutions
//
// A GEMPACK solution file (.sl4) is a HAR file of metadata and cumulative
// results. The solution reader reconstructs the back-solved and condensed
// variables, applying shock and exogenous overrides from the embedded
// command file:
//
//	sr, err := opengtap.NewSolutionReader(file)
//	arrays, err := sr.Assemble(ctx)
//
// # SQL
//
// OpenDatabase loads a file into an in-memory SQLite database with one
// table per header array, one column per defining set plus a value column:
//
//	db, err := opengtap.OpenDatabase(ctx, "basedata.har")
//	rows, err := db.Query("SELECT * FROM VOA WHERE REG = 'AUS'")
package opengtap
