package annotsv

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// AnnotSV column names recognized by the parser.
const (
	ColAnnotSVID            = "AnnotSV_ID"
	ColSVChrom              = "SV_chrom"
	ColSVStart              = "SV_start"
	ColSVEnd                = "SV_end"
	ColSVType               = "SV_type"
	ColAnnotationMode       = "Annotation_mode"
	ColSamplesID            = "Samples_ID"
	ColGeneName             = "Gene_name"
	ColTx                   = "Tx"
	ColTxVersion            = "Tx_version"
	ColTxStart              = "Tx_start"
	ColTxEnd                = "Tx_end"
	ColOverlappedTxLength   = "Overlapped_tx_length"
	ColOverlappedCDSLength  = "Overlapped_CDS_length"
	ColOverlappedCDSPercent = "Overlapped_CDS_percent"
	ColFrameshift           = "Frameshift"
	ColExonCount            = "Exon_count"
	ColLocation             = "Location"
	ColLocation2            = "Location2"
	ColDistNearestSS        = "Dist_nearest_SS"
	ColNearestSSType        = "Nearest_SS_type"
	ColIntersectStart       = "Intersect_start"
	ColIntersectEnd         = "Intersect_end"
)

// requiredColumns must all be present in the header line.
var requiredColumns = []string{
	ColAnnotSVID, ColSVChrom, ColSVStart, ColSVEnd, ColSVType, ColAnnotationMode,
}

// Parser reads records from an AnnotSV tab-separated output file.
type Parser struct {
	reader     *bufio.Reader
	file       *os.File
	gzipReader *gzip.Reader
	lineNumber int
	columns    map[string]int
	headerLine string
}

// NewParser creates a new AnnotSV parser for the given file.
// Supports plain and gzipped files; use '-' for stdin.
func NewParser(path string) (*Parser, error) {
	if path == "-" {
		return NewParserFromReader(os.Stdin)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open annotsv file: %w", err)
	}

	p := &Parser{file: file}

	// Check for gzip magic bytes
	buf := make([]byte, 2)
	if _, err := file.Read(buf); err != nil {
		file.Close()
		return nil, fmt.Errorf("read annotsv header: %w", err)
	}
	if _, err := file.Seek(0, 0); err != nil {
		file.Close()
		return nil, fmt.Errorf("seek annotsv file: %w", err)
	}

	if buf[0] == 0x1f && buf[1] == 0x8b {
		p.gzipReader, err = gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		p.reader = bufio.NewReader(p.gzipReader)
	} else {
		p.reader = bufio.NewReader(file)
	}

	if err := p.parseHeader(); err != nil {
		p.Close()
		return nil, err
	}

	return p, nil
}

// NewParserFromReader creates a parser from an io.Reader (e.g. stdin).
func NewParserFromReader(r io.Reader) (*Parser, error) {
	p := &Parser{
		reader: bufio.NewReader(r),
	}

	if err := p.parseHeader(); err != nil {
		return nil, err
	}

	return p, nil
}

// parseHeader reads the header line and builds the column index map.
func (p *Parser) parseHeader() error {
	for {
		line, err := p.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return &ParseError{
					Line:    p.lineNumber,
					Message: "no header line found",
				}
			}
			return fmt.Errorf("read header: %w", err)
		}
		p.lineNumber++

		line = strings.TrimRight(line, "\r\n")

		// AnnotSV output has no comment lines, but tolerate them.
		if strings.HasPrefix(line, "#") || line == "" {
			continue
		}

		p.headerLine = line
		return p.parseColumnIndices(line)
	}
}

// parseColumnIndices maps header column names to field positions and
// validates that all required columns are present.
func (p *Parser) parseColumnIndices(headerLine string) error {
	p.columns = make(map[string]int)
	for i, col := range strings.Split(headerLine, "\t") {
		p.columns[col] = i
	}

	for _, col := range requiredColumns {
		if _, ok := p.columns[col]; !ok {
			return &ParseError{
				Line:    p.lineNumber,
				Message: fmt.Sprintf("required column %q not found in header", col),
			}
		}
	}
	return nil
}

// Next reads the next record from the file.
// Returns nil, nil when there are no more records.
func (p *Parser) Next() (*Record, error) {
	line, err := p.reader.ReadString('\n')
	if err != nil {
		if err == io.EOF {
			if line == "" {
				return nil, nil
			}
			// Final line without trailing newline.
		} else {
			return nil, fmt.Errorf("read record line: %w", err)
		}
	}
	p.lineNumber++

	line = strings.TrimRight(line, "\r\n")
	if line == "" || strings.HasPrefix(line, "#") {
		return p.Next()
	}

	return p.parseLine(line)
}

// parseLine parses a single data line into a Record.
func (p *Parser) parseLine(line string) (*Record, error) {
	fields := strings.Split(line, "\t")

	mode, ok := NormalizeMode(p.field(fields, ColAnnotationMode))
	if !ok {
		return nil, &ParseError{
			Line: p.lineNumber,
			Message: fmt.Sprintf("invalid annotation mode %q, must be 'full' or 'split'",
				p.field(fields, ColAnnotationMode)),
		}
	}

	start, err := p.parseCoord(fields, ColSVStart)
	if err != nil {
		return nil, err
	}
	end, err := p.parseCoord(fields, ColSVEnd)
	if err != nil {
		return nil, err
	}

	r := &Record{
		AnnotSVID: p.field(fields, ColAnnotSVID),
		Chrom:     p.field(fields, ColSVChrom),
		Start:     start,
		End:       end,
		Type:      p.field(fields, ColSVType),
		Mode:      mode,
		Samples:   ParseSamples(p.field(fields, ColSamplesID)),
	}

	if mode == ModeSplit {
		r.GeneName = p.field(fields, ColGeneName)
		p.parseTranscript(fields, r)
	}

	return r, nil
}

// parseTranscript fills the transcript and association fields of a split
// record. Records without usable transcript coordinates keep HasTx false.
func (p *Parser) parseTranscript(fields []string, r *Record) {
	r.TxName = p.field(fields, ColTx)
	r.TxVersion = p.field(fields, ColTxVersion)

	txStart := parseNullInt(p.field(fields, ColTxStart))
	txEnd := parseNullInt(p.field(fields, ColTxEnd))
	if r.TxName == "" || !txStart.Valid || !txEnd.Valid {
		return
	}
	r.TxStart = txStart.Int64
	r.TxEnd = txEnd.Int64
	r.HasTx = true

	r.TxLink = TxLink{
		OverlappedTxLength:   parseNullInt(p.field(fields, ColOverlappedTxLength)),
		OverlappedCDSLength:  parseNullInt(p.field(fields, ColOverlappedCDSLength)),
		OverlappedCDSPercent: parseNullFloat(p.field(fields, ColOverlappedCDSPercent)),
		Frameshift:           p.field(fields, ColFrameshift),
		ExonCount:            parseNullInt(p.field(fields, ColExonCount)),
		Location:             p.field(fields, ColLocation),
		Location2:            p.field(fields, ColLocation2),
		DistNearestSS:        parseNullInt(p.field(fields, ColDistNearestSS)),
		NearestSSType:        p.field(fields, ColNearestSSType),
		IntersectStart:       parseNullInt(p.field(fields, ColIntersectStart)),
		IntersectEnd:         parseNullInt(p.field(fields, ColIntersectEnd)),
	}
}

// field returns the trimmed value of a named column, or "" when the column
// is absent from the header or the line is short.
func (p *Parser) field(fields []string, col string) string {
	i, ok := p.columns[col]
	if !ok || i >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[i])
}

// parseCoord parses a required integer coordinate column.
func (p *Parser) parseCoord(fields []string, col string) (int64, error) {
	s := p.field(fields, col)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("invalid %s: %s", col, s),
		}
	}
	return n, nil
}

// Header returns the header line.
func (p *Parser) Header() string {
	return p.headerLine
}

// HasColumn reports whether the header declared a column.
func (p *Parser) HasColumn(col string) bool {
	_, ok := p.columns[col]
	return ok
}

// LineNumber returns the current line number being processed.
func (p *Parser) LineNumber() int {
	return p.lineNumber
}

// Close closes the parser and underlying file.
func (p *Parser) Close() error {
	if p.gzipReader != nil {
		p.gzipReader.Close()
	}
	if p.file != nil {
		return p.file.Close()
	}
	return nil
}

// ParseError represents an error during AnnotSV parsing with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("annotsv parse error at line %d: %s", e.Line, e.Message)
}
