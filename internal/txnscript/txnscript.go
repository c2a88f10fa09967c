// Package txnscript parses transactions written in the etcdctl txn format:
// compares, a blank line, success requests, a blank line, failure requests.
//
//	mod("/cfg/a") = "0"
//
//	put /cfg/a "1"
//	get /cfg/ --prefix
//
//	get /cfg/a
package txnscript

import (
	"bufio"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/Dataman-Cloud/jetcd/errdefs"
	"github.com/Dataman-Cloud/jetcd/operation"
	"github.com/Dataman-Cloud/jetcd/predicate"
)

// Script is a parsed transaction.
type Script struct {
	Compares []predicate.Predicate
	Success  []operation.Operation
	Failure  []operation.Operation
}

const (
	sectionCompares = iota
	sectionSuccess
	sectionFailure
	sectionCount
)

// Parse reads a script from r. Sections are separated by a single blank line;
// missing trailing sections are empty.
func Parse(r io.Reader) (Script, error) {
	var script Script

	section := sectionCompares
	lineNo := 0

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineNo++

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			section++

			continue
		}

		if section >= sectionCount {
			return Script{}, errdefs.InvalidArgument("line %d: unexpected content after failure requests", lineNo)
		}

		if err := script.add(section, line); err != nil {
			return Script{}, errors.Wrapf(err, "line %d", lineNo)
		}
	}

	if err := scanner.Err(); err != nil {
		return Script{}, errors.Wrap(err, "failed to read txn script")
	}

	return script, nil
}

func (s *Script) add(section int, line string) error {
	if section == sectionCompares {
		pred, err := ParseCompare(line)
		if err != nil {
			return err
		}

		s.Compares = append(s.Compares, pred)

		return nil
	}

	op, err := ParseRequest(line)
	if err != nil {
		return err
	}

	if section == sectionSuccess {
		s.Success = append(s.Success, op)
	} else {
		s.Failure = append(s.Failure, op)
	}

	return nil
}

var compareRe = regexp.MustCompile(`^(\w+)\("((?:[^"\\]|\\.)*)"\)\s*(==|=|!=|<|>)\s*([^\s=<>!].*)$`)

// ParseCompare parses one compare, such as value("k") = "v" or mod("k") > "3".
// Targets are value (val), version (ver), create (c), mod (m) and lease.
func ParseCompare(line string) (predicate.Predicate, error) {
	match := compareRe.FindStringSubmatch(strings.TrimSpace(line))
	if match == nil {
		return nil, errdefs.InvalidArgument("malformed compare %q", line)
	}

	key, err := strconv.Unquote(`"` + match[2] + `"`)
	if err != nil {
		return nil, errdefs.InvalidArgument("malformed compare key %q", match[2])
	}

	op, ok := predicate.ParseOp(match[3])
	if !ok {
		return nil, errdefs.InvalidArgument("unknown compare operator %q", match[3])
	}

	target, err := parseTarget(match[1])
	if err != nil {
		return nil, err
	}

	value, err := unquote(strings.TrimSpace(match[4]))
	if err != nil {
		return nil, err
	}

	if target == predicate.TargetValue {
		return predicate.New([]byte(key), op, target, []byte(value))
	}

	number, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil, errdefs.InvalidArgument("%s compare requires an integer, got %q", target, value)
	}

	return predicate.New([]byte(key), op, target, number)
}

func parseTarget(name string) (predicate.Target, error) {
	switch strings.ToLower(name) {
	case "value", "val":
		return predicate.TargetValue, nil
	case "version", "ver":
		return predicate.TargetVersion, nil
	case "create", "c":
		return predicate.TargetCreateRevision, nil
	case "mod", "m":
		return predicate.TargetModRevision, nil
	case "lease":
		return predicate.TargetLease, nil
	default:
		return 0, errdefs.InvalidArgument("unknown compare target %q", name)
	}
}

func unquote(token string) (string, error) {
	if !strings.HasPrefix(token, `"`) {
		return token, nil
	}

	value, err := strconv.Unquote(token)
	if err != nil {
		return "", errdefs.InvalidArgument("malformed quoted string %s", token)
	}

	return value, nil
}
