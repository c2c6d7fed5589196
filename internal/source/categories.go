package source

// Categories is the full MyCareersFuture category list. A full crawl walks
// every category so the observed set covers the whole board; crawling the
// unfiltered endpoint alone caps out before deep result pages.
var Categories = []string{
	"Accounting / Auditing / Taxation",
	"Admin / Secretarial",
	"Advertising / Media",
	"Architecture / Interior Design",
	"Banking and Finance",
	"Building and Construction",
	"Consulting",
	"Customer Service",
	"Design",
	"Education and Training",
	"Engineering",
	"Entertainment",
	"Environment / Health",
	"Events / Promotions",
	"F&B",
	"General Management",
	"General Work",
	"Healthcare / Pharmaceutical",
	"Hospitality",
	"Human Resources",
	"Information Technology",
	"Insurance",
	"Legal",
	"Logistics / Supply Chain",
	"Manufacturing",
	"Marketing / Public Relations",
	"Medical / Therapy Services",
	"Personal Care / Beauty",
	"Professional Services",
	"Public / Civil Service",
	"Purchasing / Merchandising",
	"Real Estate / Property Management",
	"Repair and Maintenance",
	"Risk Management",
	"Sales / Retail",
	"Sciences / Laboratory / R&D",
	"Security and Investigation",
	"Social Services",
	"Telecommunications",
	"Travel / Tourism",
	"Others",
}
