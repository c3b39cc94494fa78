// Package sample provides the employee dataset used by the REPL's \load
// command, the CLI's default environment and the test suites.
//
// Four relations:
//
//	E              emp_id name salary dept_id role   (5 employees)
//	D              dept_id dept_name                  (2 departments)
//	Phone          emp_id phone                       (Alice 1, Carol 2)
//	ContractorPay  name pay                           (Frank)
package sample

import (
	"github.com/roach88/codd/internal/model"
)

// Binder receives named relations. *engine.Environment implements it.
type Binder interface {
	Bind(name string, rel *model.Relation)
}

// Names lists the sample relations in load order.
var Names = []string{"E", "D", "Phone", "ContractorPay"}

// Load binds every sample relation into b.
func Load(b Binder) {
	rels := Relations()
	for _, name := range Names {
		b.Bind(name, rels[name])
	}
}

// Relations returns fresh copies of the sample relations keyed by name.
func Relations() map[string]*model.Relation {
	return map[string]*model.Relation{
		"E":             Employees(),
		"D":             Departments(),
		"Phone":         Phones(),
		"ContractorPay": ContractorPay(),
	}
}

// Employees returns E.
func Employees() *model.Relation {
	return model.MustFromTuples(
		employee(1, "Alice", 80000, 10, "engineer"),
		employee(2, "Bob", 60000, 10, "manager"),
		employee(3, "Carol", 55000, 20, "engineer"),
		employee(4, "Dave", 90000, 10, "engineer"),
		employee(5, "Eve", 45000, 20, "engineer"),
	)
}

// Departments returns D.
func Departments() *model.Relation {
	return model.MustFromTuples(
		model.TupleOf(model.P("dept_id", model.Int(10)), model.P("dept_name", model.String("Engineering"))),
		model.TupleOf(model.P("dept_id", model.Int(20)), model.P("dept_name", model.String("Sales"))),
	)
}

// Phones returns Phone. Bob, Dave and Eve have no phone.
func Phones() *model.Relation {
	return model.MustFromTuples(
		phone(1, "555-1234"),
		phone(3, "555-5678"),
		phone(3, "555-9999"),
	)
}

// ContractorPay returns ContractorPay.
func ContractorPay() *model.Relation {
	return model.MustFromTuples(
		model.TupleOf(model.P("name", model.String("Frank")), model.P("pay", model.Int(70000))),
	)
}

func employee(id int64, name string, salary, dept int64, role string) model.Tuple {
	return model.TupleOf(
		model.P("emp_id", model.Int(id)),
		model.P("name", model.String(name)),
		model.P("salary", model.Int(salary)),
		model.P("dept_id", model.Int(dept)),
		model.P("role", model.String(role)),
	)
}

func phone(id int64, number string) model.Tuple {
	return model.TupleOf(model.P("emp_id", model.Int(id)), model.P("phone", model.String(number)))
}
