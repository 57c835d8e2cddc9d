package browser

// Page-side functions. Every function returns a JSON string so results
// cross the protocol as one value. Scope functions read their root from
// `this`: a shadow root when evaluated on one, the window otherwise.

const scopeRoot = `const root = (this && this.nodeType === 11) ? this : document;`

const documentJS = `function() {
	` + scopeRoot + `
	const html = root === document ? document.documentElement.outerHTML : root.innerHTML;
	return JSON.stringify({HTML: html, BaseURI: document.baseURI, Title: document.title});
}`

const stylesJS = `function() {
	` + scopeRoot + `
	const out = [];
	root.querySelectorAll('style, link[rel~="stylesheet"]').forEach(el => {
		let rules = [];
		let readable = false;
		try {
			if (el.sheet) {
				rules = Array.from(el.sheet.cssRules, r => r.cssText);
				readable = true;
			}
		} catch (e) {}
		const src = {Media: el.getAttribute('media') || '', Rules: rules, Readable: readable, BaseURI: document.baseURI};
		if (el.tagName === 'STYLE') {
			src.Kind = 'style';
			src.Text = el.textContent;
		} else {
			src.Kind = 'link';
			src.Href = el.href;
		}
		out.push(src);
	});
	return JSON.stringify(out);
}`

const bodyTextLenJS = `function() {
	const root = (this && this.nodeType === 11) ? this : document.body;
	if (!root) return JSON.stringify(0);
	const text = (root.innerText !== undefined ? root.innerText : root.textContent) || '';
	return JSON.stringify(Array.from(text.replace(/\s+/g, ' ').trim()).length);
}`

const hasJS = `function(sel) {
	` + scopeRoot + `
	return JSON.stringify(root.querySelector(sel) !== null);
}`

const frameAccessibleJS = `function() {
	try {
		const d = this.contentDocument;
		return JSON.stringify(!!(d && d.documentElement));
	} catch (e) {
		return JSON.stringify(false);
	}
}`

// rootsJS collects the document, every open shadow root and every
// same-origin frame document below it.
const rootsJS = `const roots = (node, out) => {
	out.push(node);
	node.querySelectorAll('*').forEach(el => {
		if (el.shadowRoot) roots(el.shadowRoot, out);
		if (el.tagName === 'IFRAME' || el.tagName === 'FRAME') {
			try {
				const d = el.contentDocument;
				if (d && d.documentElement) roots(d, out);
			} catch (e) {}
		}
	});
	return out;
};
const docs = () => roots(document, []).filter(r => r.nodeType === 9);
const images = () => roots(document, []).flatMap(r => Array.from(r.querySelectorAll('img')));`

const metricsJS = `function() {
	const s = document.scrollingElement || document.documentElement;
	return JSON.stringify({ScrollHeight: s.scrollHeight, ViewportHeight: window.innerHeight, ScrollY: Math.round(window.scrollY)});
}`

const scrollToJS = `function(y) {
	window.scrollTo(0, y);
	return JSON.stringify(null);
}`

const placeholdersJS = `function(sel) {
	` + rootsJS + `
	return JSON.stringify(roots(document, []).reduce((n, r) => n + r.querySelectorAll(sel).length, 0));
}`

const typesetJS = `function() {
	` + rootsJS + `
	docs().forEach(d => {
		const M = d.defaultView && d.defaultView.MathJax;
		try {
			if (M && M.typesetPromise) M.typesetPromise();
			else if (M && M.Hub && M.Hub.Queue) M.Hub.Queue(['Typeset', M.Hub]);
		} catch (e) {}
	});
	return JSON.stringify(null);
}`

// awaitTypesetJS resolves once every window's MathJax reports completion:
// the startup promise for version 3, a queued callback for version 2.
const awaitTypesetJS = `function() {
	` + rootsJS + `
	const waits = docs().map(d => new Promise(resolve => {
		const M = d.defaultView && d.defaultView.MathJax;
		if (!M) return resolve(false);
		if (M.startup && M.startup.promise) {
			M.startup.promise.then(() => resolve(true), () => resolve(false));
			return;
		}
		if (M.Hub && M.Hub.Queue) {
			M.Hub.Queue(() => resolve(true));
			return;
		}
		resolve(false);
	}));
	return Promise.all(waits).then(r => JSON.stringify(r.some(Boolean)));
}`

const imageCountJS = `function() {
	` + rootsJS + `
	return JSON.stringify(images().length);
}`

const waitImageJS = `function(i) {
	` + rootsJS + `
	const img = images()[i];
	if (!img || img.complete) return JSON.stringify(true);
	return new Promise(resolve => {
		img.addEventListener('load', () => resolve(JSON.stringify(true)), {once: true});
		img.addEventListener('error', () => resolve(JSON.stringify(false)), {once: true});
	});
}`
