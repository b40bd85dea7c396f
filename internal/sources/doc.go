// Package sources retrieves the BalAG, Etab and Score extracts and writes
// processed tables back.
//
// A Source opens a named blob, locally (LocalSource) or on the FTPS server
// described by login_ftp.txt (FTPSource). Fetch chains opening, decompression
// chosen from the file suffix (.gz or .bz2) and delimited-text parsing into a
// Table restricted to the requested columns:
//
//	src := sources.NewLocalSource(paths.RawDir, logger)
//	table, err := sources.Fetch(ctx, src, "cameliaBalAG.csv.gz", sources.TableOptions{
//	    Separator: '\t',
//	    Columns:   domain.InvoiceColumns,
//	})
//
// Every failure is returned as a typed *errors.AppError: FETCH when the blob
// cannot be opened, PARSING when it cannot be decoded and EMPTY_RESULT when it
// holds no rows.
package sources
