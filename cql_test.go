package cqlparser_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	. "github.com/kevin-cantwell/cqlparser"
)

func limit(n uint64) *uint64 { return &n }

func field(name string) SelectElement { return SelectElement{Expr: Name(name)} }

var _ = Describe("Parser", func() {
	Describe("SELECT", func() {
		DescribeTable("parses the same statement regardless of spacing and case",
			func(input string, want *Select) {
				stmts, err := ParseString(input)
				Expect(err).NotTo(HaveOccurred())
				Expect(stmts).To(HaveLen(1))
				Expect(stmts[0]).To(Equal(want))
			},
			Entry("one field", "select field from table",
				&Select{Select: []SelectElement{field("field")}, From: []string{"table"}}),
			Entry("one field, padded", "SELECT    field    FROM    table",
				&Select{Select: []SelectElement{field("field")}, From: []string{"table"}}),
			Entry("json", "SELECT json field FROM table",
				&Select{JSON: true, Select: []SelectElement{field("field")}, From: []string{"table"}}),
			Entry("json, padded", "SELECT    JSON    field FROM table",
				&Select{JSON: true, Select: []SelectElement{field("field")}, From: []string{"table"}}),
			Entry("distinct", "SELECT DISTINCT field FROM table",
				&Select{Distinct: true, Select: []SelectElement{field("field")}, From: []string{"table"}}),
			Entry("order by desc", "SELECT field FROM table order by foo desc",
				&Select{
					Select:  []SelectElement{field("field")},
					From:    []string{"table"},
					OrderBy: &OrderBy{Name: "foo", Ordering: Desc},
				}),
			Entry("order by asc", "SELECT field FROM table ORDER BY foo ASC",
				&Select{
					Select:  []SelectElement{field("field")},
					From:    []string{"table"},
					OrderBy: &OrderBy{Name: "foo", Ordering: Asc},
				}),
			Entry("limit zero", "SELECT field FROM table limit 0",
				&Select{Select: []SelectElement{field("field")}, From: []string{"table"}, Limit: limit(0)}),
			Entry("allow filtering", "SELECT field FROM table ALLOW FILTERING",
				&Select{Select: []SelectElement{field("field")}, From: []string{"table"}, AllowFiltering: true}),
			Entry("christmas tree",
				"SELECT json field1, field2 FROM table order by order_column DESC limit 9999 allow filtering",
				&Select{
					JSON:           true,
					Select:         []SelectElement{field("field1"), field("field2")},
					From:           []string{"table"},
					OrderBy:        &OrderBy{Name: "order_column", Ordering: Desc},
					Limit:          limit(9999),
					AllowFiltering: true,
				}),
		)

		It("parses a WHERE chain of comparisons", func() {
			stmts, err := ParseString("select a from t where a = 1 and b >= 'x' and c < false")
			Expect(err).NotTo(HaveOccurred())

			sel := stmts[0].(*Select)
			Expect(sel.Where).To(Equal([]RelationElement{
				&Comparison{LHS: Name("a"), Op: Equals, RHS: Decimal(1)},
				&Comparison{LHS: Name("b"), Op: GreaterThanOrEqualTo, RHS: Text("x")},
				&Comparison{LHS: Name("c"), Op: LessThan, RHS: Bool(false)},
			}))
		})

		It("keeps aliases", func() {
			stmts, err := ParseString("select a as x, * from t")
			Expect(err).NotTo(HaveOccurred())
			Expect(stmts[0].(*Select).Select).To(Equal([]SelectElement{
				{Expr: Name("a"), Alias: "x"},
				{Expr: Wildcard{}},
			}))
		})

		It("renders canonical CQL that parses back to the same tree", func() {
			stmts, err := ParseString("select distinct json a as b, 'it''s', -3 from t where x <= 2 order by a limit 7 allow filtering")
			Expect(err).NotTo(HaveOccurred())

			canonical := stmts[0].String()
			Expect(canonical).To(Equal("SELECT DISTINCT JSON a AS b, 'it''s', -3 FROM t WHERE x <= 2 ORDER BY a ASC LIMIT 7 ALLOW FILTERING"))

			again, err := ParseString(canonical)
			Expect(err).NotTo(HaveOccurred())
			Expect(again).To(Equal(stmts))
		})
	})

	Describe("INSERT", func() {
		It("parses the keyword", func() {
			stmts, err := ParseString("insert")
			Expect(err).NotTo(HaveOccurred())
			Expect(stmts).To(Equal([]Statement{&Insert{}}))
		})
	})

	Describe("Parse", func() {
		It("does not alias the caller's bytes", func() {
			input := []byte("select field from table")
			stmts, err := Parse(input)
			Expect(err).NotTo(HaveOccurred())

			copy(input, "XXXXXXXXXXXXXXXXXXXXXXX")
			sel := stmts[0].(*Select)
			Expect(sel.Select[0].Expr).To(Equal(Name("field")))
			Expect(sel.From).To(Equal([]string{"table"}))
		})

		It("ignores trailing input", func() {
			stmts, err := ParseString("select a from t; drop everything")
			Expect(err).NotTo(HaveOccurred())
			Expect(stmts).To(HaveLen(1))
		})
	})

	Describe("ParseStatement", func() {
		It("returns the unconsumed input", func() {
			stmt, rest, err := ParseStatement("select a from t limit 1 order by a")
			Expect(err).NotTo(HaveOccurred())
			Expect(stmt.(*Select).Limit).To(Equal(limit(1)))
			Expect(rest).To(Equal(" order by a"))
		})
	})

	Describe("errors", func() {
		It("reports the furthest failure", func() {
			_, err := ParseString("select field from")
			var se *SyntaxError
			Expect(errors.As(err, &se)).To(BeTrue())
			Expect(se.Offset).To(Equal(17))
			Expect(se.Expected).To(Equal("whitespace"))
			Expect(se.Fatal).To(BeFalse())
		})

		It("rejects unknown statements", func() {
			_, err := ParseString("update t set a = 1")
			Expect(err).To(MatchError(ContainSubstring(`expected "SELECT" or "INSERT"`)))
		})

		It("does not recover from integer overflow", func() {
			_, err := ParseString("select a from t where a = 9223372036854775808")
			var se *SyntaxError
			Expect(errors.As(err, &se)).To(BeTrue())
			Expect(se.Fatal).To(BeTrue())
			Expect(se.Offset).To(Equal(26))
		})

		It("does not recover from an unterminated string", func() {
			_, err := ParseString("select 'abc from t")
			var se *SyntaxError
			Expect(errors.As(err, &se)).To(BeTrue())
			Expect(se.Fatal).To(BeTrue())
			Expect(se.Expected).To(Equal("closing quote"))
		})
	})

	Describe("options", func() {
		It("rejects trailing input when RequireEOF is set", func() {
			_, err := ParseWithOptions("select a from t garbage", Options{RequireEOF: true})
			Expect(errors.Is(err, ErrTrailingInput)).To(BeTrue())

			var se *SyntaxError
			Expect(errors.As(err, &se)).To(BeTrue())
			Expect(se.Offset).To(Equal(16))
		})

		It("allows trailing whitespace when RequireEOF is set", func() {
			_, err := ParseWithOptions("select a from t \n\t", Options{RequireEOF: true})
			Expect(err).NotTo(HaveOccurred())
		})

		It("accepts a statement with fields when RequireFields is set", func() {
			_, err := ParseWithOptions("select a from t", Options{RequireFields: true})
			Expect(err).NotTo(HaveOccurred())
		})

		It("lets INSERT through RequireFields", func() {
			_, err := ParseWithOptions("insert", Options{RequireFields: true, RequireEOF: true})
			Expect(err).NotTo(HaveOccurred())
		})
	})
})
