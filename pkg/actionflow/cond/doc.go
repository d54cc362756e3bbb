/*
Package cond provides expression evaluation for handler conditions.

# Overview

cond implements a small expression language for deciding whether a handler
should run for a given dispatch payload. Expressions compile into predicates
over the payload; map payloads expose their keys as variables, and any
payload is reachable through the "payload" variable.

# Expression Syntax

	<expr> := <comparison>
	        | <expr> 'and' <expr>
	        | <expr> 'or' <expr>
	        | 'not' <expr>
	        | '!' <expr>
	        | <value>

	<comparison> := <value> <op> <value>
	<op> := '==' | '!=' | '<' | '>' | '<=' | '>=' | 'contains'
	<value> := 'string' | "string" | number | true | false | null | identifier

# Operators

Comparison operators:

	==         Equal (string comparison)
	!=         Not equal (string comparison)
	<          Less than (numeric comparison)
	>          Greater than (numeric comparison)
	<=         Less than or equal (numeric comparison)
	>=         Greater than or equal (numeric comparison)
	contains   String contains substring

Logical operators:

	and        Logical AND
	or         Logical OR
	not        Logical NOT (prefix)
	!          Logical NOT (prefix)

# Examples

Compile a predicate and attach it to a handler:

	pred, err := cond.Compile("status == 'ready' and count > 0")
	if err != nil {
	    return err
	}
	pred(map[string]any{"status": "ready", "count": 3})  // true
	pred(map[string]any{"status": "draft", "count": 3})  // false

Non-map payloads are exposed as the "payload" variable:

	pred, _ := cond.Compile("payload contains 'urgent'")
	pred("urgent: disk full")  // true

# Custom Operators

Register custom binary operators:

	pred, _ := cond.Compile("name matches '^test.*'",
	    cond.WithCustomOperator("matches", func(left, right any) bool {
	        matched, _ := regexp.MatchString(fmt.Sprintf("%v", right), fmt.Sprintf("%v", left))
	        return matched
	    }),
	)

# Truthiness

Single values are evaluated for truthiness:

  - nil/null: false
  - bool: the boolean value
  - string: false if empty, true otherwise
  - numbers (int, int64, float64): false if zero, true otherwise
  - other types: true
*/
package cond
